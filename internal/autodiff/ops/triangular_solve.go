// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import "github.com/zzk0/CINN/internal/tensor"

// TriangularSolveOp records X = op(A)⁻¹B (left) or X = B op(A)⁻¹ (right).
//
// Backward, left side: dB = solve(A, dX) with transposeA flipped, and
// dA = -dB·Xᵀ (or -X·dBᵀ when A was transposed), masked to the triangle the
// solve actually read. Broadcast batch dimensions are sum-reduced back to
// each operand's shape.
type TriangularSolveOp struct {
	a, b, out    *tensor.RawTensor
	leftSide     bool
	upper        bool
	transposeA   bool
	unitDiagonal bool
}

// NewTriangularSolveOp records a triangular solve.
func NewTriangularSolveOp(a, b, out *tensor.RawTensor, leftSide, upper, transposeA, unitDiagonal bool) *TriangularSolveOp {
	return &TriangularSolveOp{
		a: a, b: b, out: out,
		leftSide: leftSide, upper: upper, transposeA: transposeA, unitDiagonal: unitDiagonal,
	}
}

func (op *TriangularSolveOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *TriangularSolveOp) Output() *tensor.RawTensor   { return op.out }

func (op *TriangularSolveOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// Gradient w.r.t. B solves the transposed system against the output
	// gradient; shapes broadcast exactly like the forward solve.
	gradB := backend.TriangularSolve(op.a, grad, op.leftSide, op.upper, !op.transposeA, op.unitDiagonal)

	var gradA *tensor.RawTensor
	if op.leftSide {
		if op.transposeA {
			gradA = backend.Neg(backend.BatchMatMul(op.out, transposeLast2(gradB, backend)))
		} else {
			gradA = backend.Neg(backend.BatchMatMul(gradB, transposeLast2(op.out, backend)))
		}
	} else {
		if op.transposeA {
			gradA = backend.Neg(backend.BatchMatMul(transposeLast2(gradB, backend), op.out))
		} else {
			gradA = backend.Neg(backend.BatchMatMul(transposeLast2(op.out, backend), gradB))
		}
	}

	// Entries outside the solved triangle were never read; their gradient
	// is zero. A unit diagonal is never read either.
	m := op.a.Shape()[op.a.Shape().Rank()-1]
	mask := triangularMask(m, gradA.DType(), op.upper, op.unitDiagonal, gradA.Device())
	gradA = backend.Mul(gradA, mask)

	return []*tensor.RawTensor{
		reduceTo(gradA, op.a.Shape(), backend),
		reduceTo(gradB, op.b.Shape(), backend),
	}
}
