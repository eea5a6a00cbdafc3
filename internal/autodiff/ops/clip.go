// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/zzk0/CINN/internal/tensor"

// ClipOp records clip(x, min, max) with scalar bounds. The gradient passes
// through exactly where the input stayed inside [min, max], boundary
// included.
type ClipOp struct {
	x, out   *tensor.RawTensor
	min, max float64
}

// NewClipOp records clip(x, min, max) = out.
func NewClipOp(x, out *tensor.RawTensor, min, max float64) *ClipOp {
	return &ClipOp{x: x, out: out, min: min, max: max}
}

func (op *ClipOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *ClipOp) Output() *tensor.RawTensor   { return op.out }

func (op *ClipOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	lo := fullLike(op.x, op.min)
	hi := fullLike(op.x, op.max)
	inside := backend.And(backend.LowerEqual(lo, op.x), backend.LowerEqual(op.x, hi))
	return []*tensor.RawTensor{backend.Where(inside, grad, fullLike(grad, 0))}
}
