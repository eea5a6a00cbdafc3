// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/x448/float16"
	"github.com/zzk0/CINN/internal/tensor"
)

// Reshape returns a tensor with the same data but a different shape.
func (be *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	if x.NumElements() != shape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v", x.Shape(), shape))
	}
	return x.WithShape(shape)
}

// Transpose permutes the tensor's dimensions. With no axes given the
// dimension order is reversed.
func (be *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: bad axes %v for %dD tensor", axes, ndim))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}
	result := tensor.MustNewRaw(newShape, x.DType(), be.device)

	// Gather: walk the output linearly, read the permuted source index.
	srcStrides := x.Strides()
	gatherStrides := make([]int, ndim)
	for i, ax := range axes {
		gatherStrides[i] = srcStrides[ax]
	}
	outStrides := newShape.ComputeStrides()

	copyStrided(result, x, outStrides, gatherStrides)
	return result
}

// BroadcastTo materializes x broadcast to shape.
func (be *Backend) BroadcastTo(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if !x.Shape().BroadcastableTo(shape) {
		panic(fmt.Sprintf("broadcast_to: cannot broadcast %v to %v", x.Shape(), shape))
	}
	result := tensor.MustNewRaw(shape, x.DType(), be.device)
	copyStrided(result, x, shape.ComputeStrides(), broadcastStrides(x.Shape(), shape))
	return result
}

// copyStrided copies src into dst element by element, reading src through
// the given (possibly zero, possibly permuted) strides.
func copyStrided(dst, src *tensor.RawTensor, outStrides, inStrides []int) {
	switch dst.DType() {
	case tensor.Float16:
		copyStridedSlice(dst.AsFloat16(), src.AsFloat16(), outStrides, inStrides)
	case tensor.Float32:
		copyStridedSlice(dst.AsFloat32(), src.AsFloat32(), outStrides, inStrides)
	case tensor.Float64:
		copyStridedSlice(dst.AsFloat64(), src.AsFloat64(), outStrides, inStrides)
	case tensor.Int32:
		copyStridedSlice(dst.AsInt32(), src.AsInt32(), outStrides, inStrides)
	case tensor.Int64:
		copyStridedSlice(dst.AsInt64(), src.AsInt64(), outStrides, inStrides)
	case tensor.Uint8:
		copyStridedSlice(dst.AsUint8(), src.AsUint8(), outStrides, inStrides)
	case tensor.Bool:
		copyStridedSlice(dst.AsBool(), src.AsBool(), outStrides, inStrides)
	default:
		panic(fmt.Sprintf("strided copy: unsupported dtype %s", dst.DType()))
	}
}

func copyStridedSlice[T any](dst, src []T, outStrides, inStrides []int) {
	for i := range dst {
		dst[i] = src[flatIndex(i, outStrides, inStrides)]
	}
}

// SumTo reduces x to a broadcast origin shape by summing over the broadcast
// dimensions. Inverse of BroadcastTo.
func (be *Backend) SumTo(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if x.Shape().Equal(shape) {
		return x.Clone()
	}
	if !shape.BroadcastableTo(x.Shape()) {
		panic(fmt.Sprintf("sum_to: %v is not a broadcast origin of %v", shape, x.Shape()))
	}
	if x.DType() == tensor.Float16 {
		return float32ToFloat16(be.SumTo(float16ToFloat32(x), shape))
	}

	result := tensor.MustNewRaw(shape, x.DType(), be.device)
	outStrides := x.Shape().ComputeStrides()
	accStrides := broadcastStrides(shape, x.Shape())
	switch x.DType() {
	case tensor.Float32:
		sumToSlice(result.AsFloat32(), x.AsFloat32(), outStrides, accStrides)
	case tensor.Float64:
		sumToSlice(result.AsFloat64(), x.AsFloat64(), outStrides, accStrides)
	case tensor.Int32:
		sumToSlice(result.AsInt32(), x.AsInt32(), outStrides, accStrides)
	case tensor.Int64:
		sumToSlice(result.AsInt64(), x.AsInt64(), outStrides, accStrides)
	default:
		panic(fmt.Sprintf("sum_to: unsupported dtype %s", x.DType()))
	}
	return result
}

func sumToSlice[T number](dst, src []T, srcStrides, accStrides []int) {
	for i := range src {
		dst[flatIndex(i, srcStrides, accStrides)] += src[i]
	}
}

// Cast converts x to the given dtype, going through float64 (bool casts are
// 0/1 valued in both directions).
func (be *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}
	result := tensor.MustNewRaw(x.Shape(), dtype, be.device)
	n := x.NumElements()
	for i := 0; i < n; i++ {
		storeFloat64(result, i, loadFloat64(x, i))
	}
	return result
}

func loadFloat64(x *tensor.RawTensor, i int) float64 {
	switch x.DType() {
	case tensor.Float16:
		return float64(x.AsFloat16()[i].Float32())
	case tensor.Float32:
		return float64(x.AsFloat32()[i])
	case tensor.Float64:
		return x.AsFloat64()[i]
	case tensor.Int32:
		return float64(x.AsInt32()[i])
	case tensor.Int64:
		return float64(x.AsInt64()[i])
	case tensor.Uint8:
		return float64(x.AsUint8()[i])
	case tensor.Bool:
		if x.AsBool()[i] {
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("load: unsupported dtype %s", x.DType()))
	}
}

func storeFloat64(x *tensor.RawTensor, i int, v float64) {
	switch x.DType() {
	case tensor.Float16:
		x.AsFloat16()[i] = float16.Fromfloat32(float32(v))
	case tensor.Float32:
		x.AsFloat32()[i] = float32(v)
	case tensor.Float64:
		x.AsFloat64()[i] = v
	case tensor.Int32:
		x.AsInt32()[i] = int32(v)
	case tensor.Int64:
		x.AsInt64()[i] = int64(v)
	case tensor.Uint8:
		x.AsUint8()[i] = uint8(v)
	case tensor.Bool:
		x.AsBool()[i] = v != 0
	default:
		panic(fmt.Sprintf("store: unsupported dtype %s", x.DType()))
	}
}
