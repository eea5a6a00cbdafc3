// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/zzk0/CINN/internal/parallel"
	"github.com/zzk0/CINN/internal/tensor"
)

// MatMul multiplies two 2-D matrices: [M, K] @ [K, N] -> [M, N].
func (be *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.Shape().Rank() != 2 || b.Shape().Rank() != 2 {
		panic(fmt.Sprintf("matmul: requires 2-D operands, got %v and %v", a.Shape(), b.Shape()))
	}
	return be.BatchMatMul(a, b)
}

// BatchMatMul multiplies [..., M, K] by [..., K, N] with equal batch
// dimensions. Broadcasting of batch dimensions is the caller's job
// (BroadcastTo); the kernel stays a plain strided loop.
func (be *Backend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("batch_matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}
	if a.DType() == tensor.Float16 {
		return float32ToFloat16(be.BatchMatMul(float16ToFloat32(a), float16ToFloat32(b)))
	}
	aShape, bShape := a.Shape(), b.Shape()
	if aShape.Rank() < 2 || bShape.Rank() < 2 {
		panic(fmt.Sprintf("batch_matmul: operands must be at least 2-D, got %v and %v", aShape, bShape))
	}
	if !aShape[:aShape.Rank()-2].Equal(bShape[:bShape.Rank()-2]) {
		panic(fmt.Sprintf("batch_matmul: batch dims differ: %v vs %v", aShape, bShape))
	}
	m, k := aShape[aShape.Rank()-2], aShape[aShape.Rank()-1]
	k2, n := bShape[bShape.Rank()-2], bShape[bShape.Rank()-1]
	if k != k2 {
		panic(fmt.Sprintf("batch_matmul: inner dims differ: %v vs %v", aShape, bShape))
	}

	outShape := append(aShape[:aShape.Rank()-2].Clone(), m, n)
	result := tensor.MustNewRaw(outShape, a.DType(), be.device)
	batch := outShape[:outShape.Rank()-2].NumElements()

	switch a.DType() {
	case tensor.Float32:
		matmulBatches(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), batch, m, k, n, be.parallel)
	case tensor.Float64:
		matmulBatches(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), batch, m, k, n, be.parallel)
	default:
		panic(fmt.Sprintf("batch_matmul: unsupported dtype %s", a.DType()))
	}
	return result
}

func matmulBatches[T ~float32 | ~float64](dst, a, b []T, batch, m, k, n int, cfg parallel.Config) {
	parallel.For(batch, func(bi int) {
		ab := a[bi*m*k:]
		bb := b[bi*k*n:]
		db := dst[bi*m*n:]
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				var sum T
				for p := 0; p < k; p++ {
					sum += ab[i*k+p] * bb[p*n+j]
				}
				db[i*n+j] = sum
			}
		}
	}, cfg)
}
