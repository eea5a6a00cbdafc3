// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package frontend

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/zzk0/CINN/internal/tensor"
)

// NetBuilder constructs a Program one operation at a time. Shapes and
// dtypes are inferred as ops are added, so a malformed graph fails at
// build time rather than at execution.
type NetBuilder struct {
	name         string
	inputs       []*Variable
	instructions []*Instruction
	vars         map[string]*Variable
	counter      int
}

// NewNetBuilder creates an empty builder for a program with the given name.
func NewNetBuilder(name string) *NetBuilder {
	return &NetBuilder{
		name: name,
		vars: make(map[string]*Variable),
	}
}

// CreateInput declares a program input.
func (nb *NetBuilder) CreateInput(dtype tensor.DataType, shape tensor.Shape, name string) (*Variable, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrapf(err, "input %q", name)
	}
	if _, taken := nb.vars[name]; taken {
		return nil, errors.Errorf("input %q: name already in use", name)
	}
	v := &Variable{Name: name, DType: dtype, Shape: shape.Clone()}
	nb.vars[name] = v
	nb.inputs = append(nb.inputs, v)
	return v, nil
}

// Build finalizes the program.
func (nb *NetBuilder) Build() (*Program, error) {
	if len(nb.instructions) == 0 {
		return nil, errors.Errorf("program %q: empty program", nb.name)
	}
	vars := make(map[string]*Variable, len(nb.vars))
	for k, v := range nb.vars {
		vars[k] = v
	}
	return &Program{
		Name:         nb.name,
		Inputs:       nb.inputs,
		Instructions: nb.instructions,
		vars:         vars,
		counter:      nb.counter,
	}, nil
}

func (nb *NetBuilder) newVar(prefix string, dtype tensor.DataType, shape tensor.Shape) *Variable {
	name := fmt.Sprintf("%s_%d", prefix, nb.counter)
	nb.counter++
	v := &Variable{Name: name, DType: dtype, Shape: shape.Clone()}
	nb.vars[name] = v
	return v
}

func (nb *NetBuilder) emit(op string, inputs []*Variable, out *Variable, attrs map[string]any) {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.Name
	}
	nb.instructions = append(nb.instructions, &Instruction{
		Op:      op,
		Inputs:  names,
		Outputs: []string{out.Name},
		Attrs:   attrs,
	})
}

// ConstScalar creates a [1]-shaped constant of the given dtype.
func (nb *NetBuilder) ConstScalar(value float64, dtype tensor.DataType) (*Variable, error) {
	out := nb.newVar("const", dtype, tensor.Shape{1})
	nb.emit(OpConstScalar, nil, out, map[string]any{"value": value})
	return out, nil
}

// Identity copies x.
func (nb *NetBuilder) Identity(x *Variable) (*Variable, error) {
	out := nb.newVar("identity", x.DType, x.Shape)
	nb.emit(OpIdentity, []*Variable{x}, out, nil)
	return out, nil
}

func (nb *NetBuilder) binary(op string, a, b *Variable) (*Variable, error) {
	if a.DType != b.DType {
		return nil, errors.Errorf("%s(%s, %s): dtype mismatch %s vs %s", op, a.Name, b.Name, a.DType, b.DType)
	}
	outShape, _, err := tensor.BroadcastShapes(a.Shape, b.Shape)
	if err != nil {
		return nil, errors.Wrapf(err, "%s(%s, %s)", op, a.Name, b.Name)
	}
	out := nb.newVar(op, a.DType, outShape)
	nb.emit(op, []*Variable{a, b}, out, nil)
	return out, nil
}

// Add emits element-wise addition with broadcasting.
func (nb *NetBuilder) Add(a, b *Variable) (*Variable, error) { return nb.binary(OpAdd, a, b) }

// Sub emits element-wise subtraction with broadcasting.
func (nb *NetBuilder) Sub(a, b *Variable) (*Variable, error) { return nb.binary(OpSub, a, b) }

// Mul emits element-wise multiplication with broadcasting.
func (nb *NetBuilder) Mul(a, b *Variable) (*Variable, error) { return nb.binary(OpMul, a, b) }

// Div emits element-wise division with broadcasting.
func (nb *NetBuilder) Div(a, b *Variable) (*Variable, error) { return nb.binary(OpDiv, a, b) }

// Minimum emits the element-wise minimum with broadcasting.
func (nb *NetBuilder) Minimum(a, b *Variable) (*Variable, error) { return nb.binary(OpMinimum, a, b) }

// Maximum emits the element-wise maximum with broadcasting.
func (nb *NetBuilder) Maximum(a, b *Variable) (*Variable, error) { return nb.binary(OpMaximum, a, b) }

// Clip emits the composite clip op with optional scalar bounds; a nil
// bound leaves that side open. The decomposer pass rewrites this into
// minimum/maximum primitives before execution.
func (nb *NetBuilder) Clip(x *Variable, min, max *float64) (*Variable, error) {
	return nb.ClipWithBounds(x, nil, nil, min, max)
}

// ClipWithBounds emits clip with mixed bounds: a tensor bound overrides
// the scalar on its side, and a nil scalar leaves that side open. Bound
// tensors must have x's dtype and a shape broadcastable to x.
func (nb *NetBuilder) ClipWithBounds(x *Variable, minT, maxT *Variable, min, max *float64) (*Variable, error) {
	lo, hi := math.Inf(-1), math.Inf(1)
	if min != nil {
		lo = *min
	}
	if max != nil {
		hi = *max
	}
	if minT == nil && maxT == nil && lo > hi {
		return nil, errors.Errorf("clip(%s): min %v > max %v", x.Name, lo, hi)
	}
	inputs := []*Variable{x}
	attrs := map[string]any{
		"min": lo, "max": hi,
		"has_min_tensor": minT != nil, "has_max_tensor": maxT != nil,
	}
	for _, bound := range []*Variable{minT, maxT} {
		if bound == nil {
			continue
		}
		if bound.DType != x.DType {
			return nil, errors.Errorf("clip(%s): bound %s dtype %s != %s", x.Name, bound.Name, bound.DType, x.DType)
		}
		if !bound.Shape.BroadcastableTo(x.Shape) {
			return nil, errors.Errorf("clip(%s): bound %s shape %v not broadcastable to %v", x.Name, bound.Name, bound.Shape, x.Shape)
		}
		inputs = append(inputs, bound)
	}
	out := nb.newVar("clip", x.DType, x.Shape)
	nb.emit(OpClip, inputs, out, attrs)
	return out, nil
}

// BroadcastTo emits an explicit broadcast to shape.
func (nb *NetBuilder) BroadcastTo(x *Variable, shape tensor.Shape) (*Variable, error) {
	if !x.Shape.BroadcastableTo(shape) {
		return nil, errors.Errorf("broadcast_to(%s): cannot broadcast %v to %v", x.Name, x.Shape, shape)
	}
	out := nb.newVar("broadcast", x.DType, shape)
	nb.emit(OpBroadcastTo, []*Variable{x}, out, map[string]any{"shape": []int(shape.Clone())})
	return out, nil
}

// Reshape emits a reshape to shape.
func (nb *NetBuilder) Reshape(x *Variable, shape tensor.Shape) (*Variable, error) {
	if x.Shape.NumElements() != shape.NumElements() {
		return nil, errors.Errorf("reshape(%s): %v -> %v changes element count", x.Name, x.Shape, shape)
	}
	out := nb.newVar("reshape", x.DType, shape)
	nb.emit(OpReshape, []*Variable{x}, out, map[string]any{"shape": []int(shape.Clone())})
	return out, nil
}

// Transpose emits a dimension permutation.
func (nb *NetBuilder) Transpose(x *Variable, axes []int) (*Variable, error) {
	if len(axes) != x.Shape.Rank() {
		return nil, errors.Errorf("transpose(%s): axes %v do not match rank %d", x.Name, axes, x.Shape.Rank())
	}
	outShape := make(tensor.Shape, len(axes))
	seen := make([]bool, len(axes))
	for i, ax := range axes {
		if ax < 0 || ax >= len(axes) || seen[ax] {
			return nil, errors.Errorf("transpose(%s): bad axes %v", x.Name, axes)
		}
		seen[ax] = true
		outShape[i] = x.Shape[ax]
	}
	out := nb.newVar("transpose", x.DType, outShape)
	nb.emit(OpTranspose, []*Variable{x}, out, map[string]any{"axes": append([]int(nil), axes...)})
	return out, nil
}

// Cast emits a dtype conversion.
func (nb *NetBuilder) Cast(x *Variable, dtype tensor.DataType) (*Variable, error) {
	out := nb.newVar("cast", dtype, x.Shape)
	nb.emit(OpCast, []*Variable{x}, out, map[string]any{"dtype": dtype.String()})
	return out, nil
}

// MatMul emits a batched matrix product with equal batch dimensions.
func (nb *NetBuilder) MatMul(a, b *Variable) (*Variable, error) {
	if a.DType != b.DType {
		return nil, errors.Errorf("matmul(%s, %s): dtype mismatch", a.Name, b.Name)
	}
	ra, rb := a.Shape.Rank(), b.Shape.Rank()
	if ra < 2 || rb < 2 || ra != rb || !a.Shape[:ra-2].Equal(b.Shape[:rb-2]) {
		return nil, errors.Errorf("matmul(%s, %s): incompatible shapes %v and %v", a.Name, b.Name, a.Shape, b.Shape)
	}
	if a.Shape[ra-1] != b.Shape[rb-2] {
		return nil, errors.Errorf("matmul(%s, %s): inner dims differ: %v and %v", a.Name, b.Name, a.Shape, b.Shape)
	}
	outShape := append(a.Shape[:ra-2].Clone(), a.Shape[ra-2], b.Shape[rb-1])
	out := nb.newVar("matmul", a.DType, outShape)
	nb.emit(OpMatMul, []*Variable{a, b}, out, nil)
	return out, nil
}

// TriangularSolve emits a triangular solve: op(A) X = B when leftSide,
// X op(A) = B otherwise. Batch dimensions broadcast.
func (nb *NetBuilder) TriangularSolve(a, b *Variable, leftSide, upper, transposeA, unitDiagonal bool) (*Variable, error) {
	outShape, err := InferTriangularSolveShape(a.Shape, b.Shape, leftSide)
	if err != nil {
		return nil, errors.Wrapf(err, "triangular_solve(%s, %s)", a.Name, b.Name)
	}
	if a.DType != b.DType {
		return nil, errors.Errorf("triangular_solve(%s, %s): dtype mismatch %s vs %s", a.Name, b.Name, a.DType, b.DType)
	}
	if !a.DType.IsFloat() || a.DType == tensor.Float16 {
		return nil, errors.Errorf("triangular_solve(%s, %s): unsupported dtype %s", a.Name, b.Name, a.DType)
	}
	out := nb.newVar("triangular_solve", a.DType, outShape)
	nb.emit(OpTriangularSolve, []*Variable{a, b}, out, map[string]any{
		"left_side":     leftSide,
		"upper":         upper,
		"transpose_a":   transposeA,
		"unit_diagonal": unitDiagonal,
	})
	return out, nil
}

// InferTriangularSolveShape computes the solve output shape, validating
// the operand shapes. Shared by the builder and the normalizer pass.
func InferTriangularSolveShape(a, b tensor.Shape, leftSide bool) (tensor.Shape, error) {
	if a.Rank() < 2 || a[a.Rank()-1] != a[a.Rank()-2] {
		return nil, errors.Errorf("A must be [..., M, M], got %v", a)
	}
	if b.Rank() < 2 {
		return nil, errors.Errorf("B must be at least 2-D, got %v", b)
	}
	m := a[a.Rank()-1]
	mDim := b.Rank() - 2
	if !leftSide {
		mDim = b.Rank() - 1
	}
	if b[mDim] != m {
		return nil, errors.Errorf("A is %v but B is %v", a, b)
	}
	batch, _, err := tensor.BroadcastShapes(a[:a.Rank()-2], b[:b.Rank()-2])
	if err != nil {
		return nil, errors.Wrap(err, "batch dims")
	}
	return append(batch, b[b.Rank()-2], b[b.Rank()-1]), nil
}
