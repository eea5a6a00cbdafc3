// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"
	"math"

	"github.com/zzk0/CINN/internal/tensor"
)

// Clip limits every element of x to [min, max]. The float64 bounds are
// converted to x's dtype first, so integer tensors compare against the
// truncated bounds, matching the framework's clip attribute semantics.
func (be *Backend) Clip(x *tensor.RawTensor, min, max float64) *tensor.RawTensor {
	if min > max {
		panic(fmt.Sprintf("clip: min %v > max %v", min, max))
	}
	if x.DType() == tensor.Float16 {
		return float32ToFloat16(be.Clip(float16ToFloat32(x), min, max))
	}

	result := tensor.MustNewRaw(x.Shape(), x.DType(), be.device)
	switch x.DType() {
	case tensor.Float32:
		clipSlice(result.AsFloat32(), x.AsFloat32(), float32(min), float32(max))
	case tensor.Float64:
		clipSlice(result.AsFloat64(), x.AsFloat64(), min, max)
	case tensor.Int32:
		clipSlice(result.AsInt32(), x.AsInt32(), boundToInt[int32](min, math.MinInt32, math.MaxInt32), boundToInt[int32](max, math.MinInt32, math.MaxInt32))
	case tensor.Int64:
		clipSlice(result.AsInt64(), x.AsInt64(), boundToInt[int64](min, math.MinInt64, math.MaxInt64), boundToInt[int64](max, math.MinInt64, math.MaxInt64))
	case tensor.Uint8:
		lo := uint8(math.Min(math.Max(min, 0), 255))
		hi := uint8(math.Min(math.Max(max, 0), 255))
		src, dst := x.AsUint8(), result.AsUint8()
		for i, v := range src {
			switch {
			case v < lo:
				dst[i] = lo
			case v > hi:
				dst[i] = hi
			default:
				dst[i] = v
			}
		}
	default:
		panic(fmt.Sprintf("clip: unsupported dtype %s", x.DType()))
	}
	return result
}

func clipSlice[T number](dst, src []T, lo, hi T) {
	for i, v := range src {
		switch {
		case v < lo:
			dst[i] = lo
		case v > hi:
			dst[i] = hi
		default:
			dst[i] = v
		}
	}
}

// boundToInt truncates a float bound into the integer dtype, saturating at
// the dtype limits so ±Inf defaults stay well defined.
func boundToInt[T ~int32 | ~int64](bound float64, minVal, maxVal T) T {
	if math.IsInf(bound, -1) || bound <= float64(minVal) {
		return minVal
	}
	if math.IsInf(bound, 1) || bound >= float64(maxVal) {
		return maxVal
	}
	return T(bound)
}
