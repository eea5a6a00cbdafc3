// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/zzk0/CINN/internal/tensor"

// BatchMatMulOp records a (possibly batched) matrix product with equal
// batch dimensions; broadcast normalization happens before the kernel, so
// no gradient reduction over batch dims is needed here.
type BatchMatMulOp struct{ a, b, out *tensor.RawTensor }

// NewBatchMatMulOp records a @ b = out.
func NewBatchMatMulOp(a, b, out *tensor.RawTensor) *BatchMatMulOp {
	return &BatchMatMulOp{a, b, out}
}

func (op *BatchMatMulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *BatchMatMulOp) Output() *tensor.RawTensor   { return op.out }

func (op *BatchMatMulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// d(A@B)/dA = grad @ Bᵀ, d(A@B)/dB = Aᵀ @ grad
	ga := backend.BatchMatMul(grad, transposeLast2(op.b, backend))
	gb := backend.BatchMatMul(transposeLast2(op.a, backend), grad)
	return []*tensor.RawTensor{ga, gb}
}
