// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/zzk0/CINN/internal/tensor"

// TransposeOp records a dimension permutation.
type TransposeOp struct {
	x, out *tensor.RawTensor
	axes   []int
}

// NewTransposeOp records transpose(x, axes) = out. axes must be the
// effective permutation (already defaulted by the backend caller).
func NewTransposeOp(x, out *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{x: x, out: out, axes: axes}
}

func (op *TransposeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *TransposeOp) Output() *tensor.RawTensor   { return op.out }

func (op *TransposeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(grad, inverse...)}
}

// ReshapeOp records a reshape.
type ReshapeOp struct{ x, out *tensor.RawTensor }

// NewReshapeOp records reshape(x) = out.
func NewReshapeOp(x, out *tensor.RawTensor) *ReshapeOp { return &ReshapeOp{x, out} }

func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *ReshapeOp) Output() *tensor.RawTensor   { return op.out }

func (op *ReshapeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(grad, op.x.Shape())}
}

// BroadcastToOp records an explicit broadcast; the backward pass sums the
// gradient back over the broadcast dimensions.
type BroadcastToOp struct{ x, out *tensor.RawTensor }

// NewBroadcastToOp records broadcast_to(x) = out.
func NewBroadcastToOp(x, out *tensor.RawTensor) *BroadcastToOp { return &BroadcastToOp{x, out} }

func (op *BroadcastToOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *BroadcastToOp) Output() *tensor.RawTensor   { return op.out }

func (op *BroadcastToOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.SumTo(grad, op.x.Shape())}
}
