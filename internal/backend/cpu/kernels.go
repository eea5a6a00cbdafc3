// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/x448/float16"
	"github.com/zzk0/CINN/internal/tensor"
)

// number covers the dtypes the arithmetic kernels are instantiated for.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

func binarySlice[T number](op binaryOp, dst, a, b []T) {
	switch op {
	case opAdd:
		for i := range dst {
			dst[i] = a[i] + b[i]
		}
	case opSub:
		for i := range dst {
			dst[i] = a[i] - b[i]
		}
	case opMul:
		for i := range dst {
			dst[i] = a[i] * b[i]
		}
	case opDiv:
		for i := range dst {
			dst[i] = a[i] / b[i]
		}
	case opMin:
		for i := range dst {
			dst[i] = min(a[i], b[i])
		}
	case opMax:
		for i := range dst {
			dst[i] = max(a[i], b[i])
		}
	}
}

func binaryBroadcast[T number](op binaryOp, dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	apply := func(x, y T) T {
		switch op {
		case opAdd:
			return x + y
		case opSub:
			return x - y
		case opMul:
			return x * y
		case opDiv:
			return x / y
		case opMin:
			return min(x, y)
		case opMax:
			return max(x, y)
		}
		return 0
	}
	for i := range dst {
		ai := flatIndex(i, outStrides, aStrides)
		bi := flatIndex(i, outStrides, bStrides)
		dst[i] = apply(a[ai], b[bi])
	}
}

func negSlice[T number](dst, src []T) {
	for i := range src {
		dst[i] = -src[i]
	}
}

// broadcastStrides computes strides for reading a tensor of inShape as if it
// had outShape: broadcast (size-1 or missing) dimensions get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// flatIndex maps an output flat index to the source flat index given the
// output strides and the broadcast-adjusted source strides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		idx += coord * inStrides[i]
	}
	return idx
}

// float16ToFloat32 widens a half-float tensor to float32.
func float16ToFloat32(x *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustNewRaw(x.Shape(), tensor.Float32, x.Device())
	src, dst := x.AsFloat16(), out.AsFloat32()
	for i := range src {
		dst[i] = src[i].Float32()
	}
	return out
}

// float32ToFloat16 rounds a float32 tensor back to half floats.
func float32ToFloat16(x *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustNewRaw(x.Shape(), tensor.Float16, x.Device())
	src, dst := x.AsFloat32(), out.AsFloat16()
	for i := range src {
		dst[i] = float16.Fromfloat32(src[i])
	}
	return out
}
