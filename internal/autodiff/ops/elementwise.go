// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/zzk0/CINN/internal/tensor"

// AddOp records a + b.
type AddOp struct{ a, b, out *tensor.RawTensor }

// NewAddOp records a + b = out.
func NewAddOp(a, b, out *tensor.RawTensor) *AddOp { return &AddOp{a, b, out} }

func (op *AddOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *AddOp) Output() *tensor.RawTensor   { return op.out }

func (op *AddOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceTo(grad, op.a.Shape(), backend),
		reduceTo(grad, op.b.Shape(), backend),
	}
}

// SubOp records a - b.
type SubOp struct{ a, b, out *tensor.RawTensor }

// NewSubOp records a - b = out.
func NewSubOp(a, b, out *tensor.RawTensor) *SubOp { return &SubOp{a, b, out} }

func (op *SubOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *SubOp) Output() *tensor.RawTensor   { return op.out }

func (op *SubOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceTo(grad, op.a.Shape(), backend),
		reduceTo(backend.Neg(grad), op.b.Shape(), backend),
	}
}

// MulOp records a * b.
type MulOp struct{ a, b, out *tensor.RawTensor }

// NewMulOp records a * b = out.
func NewMulOp(a, b, out *tensor.RawTensor) *MulOp { return &MulOp{a, b, out} }

func (op *MulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *MulOp) Output() *tensor.RawTensor   { return op.out }

func (op *MulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceTo(backend.Mul(grad, op.b), op.a.Shape(), backend),
		reduceTo(backend.Mul(grad, op.a), op.b.Shape(), backend),
	}
}

// DivOp records a / b.
type DivOp struct{ a, b, out *tensor.RawTensor }

// NewDivOp records a / b = out.
func NewDivOp(a, b, out *tensor.RawTensor) *DivOp { return &DivOp{a, b, out} }

func (op *DivOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *DivOp) Output() *tensor.RawTensor   { return op.out }

func (op *DivOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	ga := backend.Div(grad, op.b)
	// d(a/b)/db = -a/b² = -out/b
	gb := backend.Neg(backend.Div(backend.Mul(grad, op.out), op.b))
	return []*tensor.RawTensor{
		reduceTo(ga, op.a.Shape(), backend),
		reduceTo(gb, op.b.Shape(), backend),
	}
}

// NegOp records -x.
type NegOp struct{ x, out *tensor.RawTensor }

// NewNegOp records -x = out.
func NewNegOp(x, out *tensor.RawTensor) *NegOp { return &NegOp{x, out} }

func (op *NegOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *NegOp) Output() *tensor.RawTensor   { return op.out }

func (op *NegOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Neg(grad)}
}

// MinimumOp records min(a, b). On ties the gradient goes to a, matching
// what decomposed clip needs to agree with the composite kernel.
type MinimumOp struct{ a, b, out *tensor.RawTensor }

// NewMinimumOp records min(a, b) = out.
func NewMinimumOp(a, b, out *tensor.RawTensor) *MinimumOp { return &MinimumOp{a, b, out} }

func (op *MinimumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *MinimumOp) Output() *tensor.RawTensor   { return op.out }

func (op *MinimumOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask := backend.LowerEqual(op.a, op.b) // a wins on ties
	return routeByMask(mask, grad, op.a.Shape(), op.b.Shape(), backend)
}

// MaximumOp records max(a, b). On ties the gradient goes to a.
type MaximumOp struct{ a, b, out *tensor.RawTensor }

// NewMaximumOp records max(a, b) = out.
func NewMaximumOp(a, b, out *tensor.RawTensor) *MaximumOp { return &MaximumOp{a, b, out} }

func (op *MaximumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *MaximumOp) Output() *tensor.RawTensor   { return op.out }

func (op *MaximumOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask := backend.LowerEqual(op.b, op.a) // a wins on ties
	return routeByMask(mask, grad, op.a.Shape(), op.b.Shape(), backend)
}

// routeByMask sends grad to the first input where mask holds and to the
// second elsewhere, reducing each to its origin shape.
func routeByMask(mask, grad *tensor.RawTensor, aShape, bShape tensor.Shape, backend tensor.Backend) []*tensor.RawTensor {
	zeros := fullLike(grad, 0)
	ga := backend.Where(mask, grad, zeros)
	gb := backend.Where(mask, zeros, grad)
	return []*tensor.RawTensor{
		reduceTo(ga, aShape, backend),
		reduceTo(gb, bShape, backend),
	}
}

// WhereOp records where(cond, x, y). The condition gets no gradient.
type WhereOp struct{ cond, x, y, out *tensor.RawTensor }

// NewWhereOp records where(cond, x, y) = out.
func NewWhereOp(cond, x, y, out *tensor.RawTensor) *WhereOp { return &WhereOp{cond, x, y, out} }

func (op *WhereOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.cond, op.x, op.y}
}
func (op *WhereOp) Output() *tensor.RawTensor { return op.out }

func (op *WhereOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	zeros := fullLike(grad, 0)
	return []*tensor.RawTensor{
		nil,
		backend.Where(op.cond, grad, zeros),
		backend.Where(op.cond, zeros, grad),
	}
}
