// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/zzk0/CINN/internal/parallel"
	"github.com/zzk0/CINN/internal/tensor"
)

// TriangularSolve solves op(A) X = B for X when leftSide is true, or
// X op(A) = B otherwise. A is [..., M, M] and only its `upper` (or lower)
// triangle is read; B is [..., M, K] (left) or [..., K, M] (right).
//
// Batch dimensions broadcast by NumPy rules; 2-D operands are rank-lifted.
// transposeA solves against Aᵀ without materializing the transpose.
// unitDiagonal substitutes 1 for every pivot. A zero pivot divides through
// and the Inf/NaN propagates, mirroring the framework's behavior on
// singular systems.
func (be *Backend) TriangularSolve(a, b *tensor.RawTensor, leftSide, upper, transposeA, unitDiagonal bool) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("triangular_solve: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}
	if !leftSide {
		// X op(A) = B  <=>  op(A)ᵀ Xᵀ = Bᵀ. The transposed system swaps
		// the triangle read, which flipping transposeA already encodes.
		bt := transposeLast2(be, b)
		xt := be.TriangularSolve(a, bt, true, upper, !transposeA, unitDiagonal)
		return transposeLast2(be, xt)
	}

	aShape, bShape := a.Shape(), b.Shape()
	if aShape.Rank() < 2 || aShape[aShape.Rank()-1] != aShape[aShape.Rank()-2] {
		panic(fmt.Sprintf("triangular_solve: A must be [..., M, M], got %v", aShape))
	}
	if bShape.Rank() < 2 {
		panic(fmt.Sprintf("triangular_solve: B must be [..., M, K], got %v", bShape))
	}
	m := aShape[aShape.Rank()-1]
	k := bShape[bShape.Rank()-1]
	if bShape[bShape.Rank()-2] != m {
		panic(fmt.Sprintf("triangular_solve: A is %v but B is %v", aShape, bShape))
	}

	aBatch := aShape[:aShape.Rank()-2]
	bBatch := bShape[:bShape.Rank()-2]
	outBatch, _, err := tensor.BroadcastShapes(aBatch, bBatch)
	if err != nil {
		panic(fmt.Sprintf("triangular_solve: incompatible batch dims: %v", err))
	}
	outShape := append(outBatch.Clone(), m, k)
	result := tensor.MustNewRaw(outShape, a.DType(), be.device)

	batchStrides := outBatch.ComputeStrides()
	aStrides := broadcastStrides(aBatch, outBatch)
	bStrides := broadcastStrides(bBatch, outBatch)
	batch := outBatch.NumElements()

	switch a.DType() {
	case tensor.Float32:
		solveBatches(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), solveArgs{
			batch: batch, m: m, k: k,
			batchStrides: batchStrides, aStrides: aStrides, bStrides: bStrides,
			upper: upper, transposeA: transposeA, unitDiagonal: unitDiagonal,
		}, be.parallel)
	case tensor.Float64:
		solveBatches(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), solveArgs{
			batch: batch, m: m, k: k,
			batchStrides: batchStrides, aStrides: aStrides, bStrides: bStrides,
			upper: upper, transposeA: transposeA, unitDiagonal: unitDiagonal,
		}, be.parallel)
	default:
		panic(fmt.Sprintf("triangular_solve: unsupported dtype %s", a.DType()))
	}
	return result
}

type solveArgs struct {
	batch, m, k  int
	batchStrides []int
	aStrides     []int
	bStrides     []int
	upper        bool
	transposeA   bool
	unitDiagonal bool
}

func solveBatches[T ~float32 | ~float64](dst, a, b []T, args solveArgs, cfg parallel.Config) {
	m, k := args.m, args.k
	parallel.For(args.batch, func(bi int) {
		am := a[flatIndex(bi, args.batchStrides, args.aStrides)*m*m:]
		bm := b[flatIndex(bi, args.batchStrides, args.bStrides)*m*k:]
		xm := dst[bi*m*k : (bi+1)*m*k]
		copy(xm, bm[:m*k])
		substitute(am, xm, m, k, args.upper, args.transposeA, args.unitDiagonal)
	}, cfg)
}

// substitute runs forward or back substitution on a single system, solving
// op(A) X = B in place (x holds B on entry, X on exit).
func substitute[T ~float32 | ~float64](a, x []T, m, k int, upper, transposeA, unitDiagonal bool) {
	at := func(i, j int) T {
		if transposeA {
			return a[j*m+i]
		}
		return a[i*m+j]
	}

	// Transposing A flips which triangle the substitution walks.
	backward := upper != transposeA

	for c := 0; c < k; c++ {
		if backward {
			for i := m - 1; i >= 0; i-- {
				sum := x[i*k+c]
				for j := i + 1; j < m; j++ {
					sum -= at(i, j) * x[j*k+c]
				}
				if !unitDiagonal {
					sum /= at(i, i)
				}
				x[i*k+c] = sum
			}
		} else {
			for i := 0; i < m; i++ {
				sum := x[i*k+c]
				for j := 0; j < i; j++ {
					sum -= at(i, j) * x[j*k+c]
				}
				if !unitDiagonal {
					sum /= at(i, i)
				}
				x[i*k+c] = sum
			}
		}
	}
}

// transposeLast2 swaps the last two dimensions of a batched matrix.
func transposeLast2(be *Backend, x *tensor.RawTensor) *tensor.RawTensor {
	rank := x.Shape().Rank()
	if rank < 2 {
		panic(fmt.Sprintf("transpose: tensor must be at least 2-D, got %v", x.Shape()))
	}
	axes := make([]int, rank)
	for i := range axes {
		axes[i] = i
	}
	axes[rank-2], axes[rank-1] = axes[rank-1], axes[rank-2]
	return be.Transpose(x, axes...)
}
