// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff wraps any tensor.Backend with gradient tracking.
//
// Backend[B] is a decorator: forward calls go to the wrapped backend, and
// differentiable operations are recorded on a GradientTape. Walking the
// tape backwards yields gradients for every input that influenced the
// chosen root, which is how both execution paths of the equivalence
// harness obtain their gradients: the reference path over composite ops,
// the compiled path over the decomposed primitives the executor ran.
package autodiff

import (
	"github.com/zzk0/CINN/internal/autodiff/ops"
	"github.com/zzk0/CINN/internal/tensor"
)

// Backend wraps a tensor.Backend and records differentiable operations.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates an autodiff backend wrapping the given backend, with a tape
// that is already recording.
func New[B tensor.Backend](backend B) *Backend[B] {
	b := &Backend[B]{inner: backend, tape: NewGradientTape()}
	b.tape.StartRecording()
	return b
}

// Tape returns the gradient tape for manual control.
func (b *Backend[B]) Tape() *GradientTape { return b.tape }

// Inner returns the wrapped backend.
func (b *Backend[B]) Inner() B { return b.inner }

// Name returns the backend name.
func (b *Backend[B]) Name() string { return "Autodiff(" + b.inner.Name() + ")" }

// Device returns the compute device.
func (b *Backend[B]) Device() tensor.Device { return b.inner.Device() }

// Backward computes gradients of the sum of root w.r.t. every recorded
// tensor, returning a map keyed by RawTensor.
func (b *Backend[B]) Backward(root *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	seed := tensor.OnesRaw(root.Shape(), root.DType(), root.Device())
	return b.tape.Backward(root, seed, b.inner)
}

// Add performs element-wise addition and records the operation.
func (b *Backend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Add(x, y)
	b.tape.Record(ops.NewAddOp(x, y, out))
	return out
}

// Sub performs element-wise subtraction and records the operation.
func (b *Backend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Sub(x, y)
	b.tape.Record(ops.NewSubOp(x, y, out))
	return out
}

// Mul performs element-wise multiplication and records the operation.
func (b *Backend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Mul(x, y)
	b.tape.Record(ops.NewMulOp(x, y, out))
	return out
}

// Div performs element-wise division and records the operation.
func (b *Backend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Div(x, y)
	b.tape.Record(ops.NewDivOp(x, y, out))
	return out
}

// Minimum computes the element-wise minimum and records the operation.
func (b *Backend[B]) Minimum(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Minimum(x, y)
	b.tape.Record(ops.NewMinimumOp(x, y, out))
	return out
}

// Maximum computes the element-wise maximum and records the operation.
func (b *Backend[B]) Maximum(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Maximum(x, y)
	b.tape.Record(ops.NewMaximumOp(x, y, out))
	return out
}

// Neg negates every element and records the operation.
func (b *Backend[B]) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Neg(x)
	b.tape.Record(ops.NewNegOp(x, out))
	return out
}

// Clip limits elements to [min, max] and records the operation.
func (b *Backend[B]) Clip(x *tensor.RawTensor, min, max float64) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Clip(x, min, max)
	b.tape.Record(ops.NewClipOp(x, out, min, max))
	return out
}

// MatMul multiplies 2-D matrices and records the operation.
func (b *Backend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.MatMul(x, y)
	b.tape.Record(ops.NewBatchMatMulOp(x, y, out))
	return out
}

// BatchMatMul multiplies batched matrices and records the operation.
func (b *Backend[B]) BatchMatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.BatchMatMul(x, y)
	b.tape.Record(ops.NewBatchMatMulOp(x, y, out))
	return out
}

// TriangularSolve solves the triangular system and records the operation.
func (b *Backend[B]) TriangularSolve(a, x *tensor.RawTensor, leftSide, upper, transposeA, unitDiagonal bool) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer x.ForceNonUnique()()
	out := b.inner.TriangularSolve(a, x, leftSide, upper, transposeA, unitDiagonal)
	b.tape.Record(ops.NewTriangularSolveOp(a, x, out, leftSide, upper, transposeA, unitDiagonal))
	return out
}

// Reshape changes the shape and records the operation.
func (b *Backend[B]) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Reshape(x, shape)
	b.tape.Record(ops.NewReshapeOp(x, out))
	return out
}

// Transpose permutes dimensions and records the operation.
func (b *Backend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	if len(axes) == 0 {
		ndim := x.Shape().Rank()
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	out := b.inner.Transpose(x, axes...)
	b.tape.Record(ops.NewTransposeOp(x, out, axes))
	return out
}

// BroadcastTo materializes a broadcast and records the operation.
func (b *Backend[B]) BroadcastTo(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.BroadcastTo(x, shape)
	b.tape.Record(ops.NewBroadcastToOp(x, out))
	return out
}

// Where selects elements and records the operation.
func (b *Backend[B]) Where(cond, x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Where(cond, x, y)
	b.tape.Record(ops.NewWhereOp(cond, x, y, out))
	return out
}

// SumTo reduces to a broadcast origin shape; used by gradient code itself,
// so it is not recorded.
func (b *Backend[B]) SumTo(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.inner.SumTo(x, shape)
}

// LowerEqual compares element-wise; comparisons carry no gradient.
func (b *Backend[B]) LowerEqual(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.LowerEqual(x, y)
}

// And combines Bool tensors; carries no gradient.
func (b *Backend[B]) And(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.And(x, y)
}

// Cast converts dtypes; treated as non-differentiable.
func (b *Backend[B]) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return b.inner.Cast(x, dtype)
}
