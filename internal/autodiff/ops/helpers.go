// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import (
	"fmt"

	"github.com/zzk0/CINN/internal/tensor"
)

// reduceTo sums grad back to shape when the forward op broadcast its input.
func reduceTo(grad *tensor.RawTensor, shape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(shape) {
		return grad
	}
	return backend.SumTo(grad, shape)
}

// fullLike builds a constant tensor of x's dtype and shape.
func fullLike(x *tensor.RawTensor, value float64) *tensor.RawTensor {
	return tensor.FullRaw(x.Shape(), x.DType(), value, x.Device())
}

// triangularMask builds an [m, m] 0/1 mask selecting the upper or lower
// triangle, optionally excluding the diagonal. Used to zero gradients for
// matrix entries a triangular solve never reads.
func triangularMask(m int, dtype tensor.DataType, upper, excludeDiagonal bool, device tensor.Device) *tensor.RawTensor {
	r := tensor.MustNewRaw(tensor.Shape{m, m}, dtype, device)
	set := func(i, j int) bool {
		if excludeDiagonal && i == j {
			return false
		}
		if upper {
			return j >= i
		}
		return j <= i
	}
	switch dtype {
	case tensor.Float32:
		data := r.AsFloat32()
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				if set(i, j) {
					data[i*m+j] = 1
				}
			}
		}
	case tensor.Float64:
		data := r.AsFloat64()
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				if set(i, j) {
					data[i*m+j] = 1
				}
			}
		}
	default:
		panic(fmt.Sprintf("triangular mask: unsupported dtype %s", dtype))
	}
	return r
}

// transposeLast2 swaps the two trailing dimensions through the backend.
func transposeLast2(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	rank := x.Shape().Rank()
	axes := make([]int, rank)
	for i := range axes {
		axes[i] = i
	}
	axes[rank-2], axes[rank-1] = axes[rank-1], axes[rank-2]
	return backend.Transpose(x, axes...)
}
