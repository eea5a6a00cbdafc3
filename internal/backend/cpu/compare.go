// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/zzk0/CINN/internal/tensor"
)

// LowerEqual computes a <= b element-wise with broadcasting, producing a
// Bool tensor.
func (be *Backend) LowerEqual(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("lower_equal: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}
	if a.DType() == tensor.Float16 {
		return be.LowerEqual(float16ToFloat32(a), float16ToFloat32(b))
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("lower_equal: %v", err))
	}
	result := tensor.MustNewRaw(outShape, tensor.Bool, be.device)
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)

	switch a.DType() {
	case tensor.Float32:
		lowerEqualSlice(result.AsBool(), a.AsFloat32(), b.AsFloat32(), outStrides, aStrides, bStrides)
	case tensor.Float64:
		lowerEqualSlice(result.AsBool(), a.AsFloat64(), b.AsFloat64(), outStrides, aStrides, bStrides)
	case tensor.Int32:
		lowerEqualSlice(result.AsBool(), a.AsInt32(), b.AsInt32(), outStrides, aStrides, bStrides)
	case tensor.Int64:
		lowerEqualSlice(result.AsBool(), a.AsInt64(), b.AsInt64(), outStrides, aStrides, bStrides)
	default:
		panic(fmt.Sprintf("lower_equal: unsupported dtype %s", a.DType()))
	}
	return result
}

func lowerEqualSlice[T number](dst []bool, a, b []T, outStrides, aStrides, bStrides []int) {
	for i := range dst {
		dst[i] = a[flatIndex(i, outStrides, aStrides)] <= b[flatIndex(i, outStrides, bStrides)]
	}
}

// And computes the logical AND of two Bool tensors of equal shape.
func (be *Backend) And(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Bool || b.DType() != tensor.Bool {
		panic(fmt.Sprintf("and: requires bool tensors, got %s and %s", a.DType(), b.DType()))
	}
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("and: shape mismatch %v vs %v", a.Shape(), b.Shape()))
	}
	result := tensor.MustNewRaw(a.Shape(), tensor.Bool, be.device)
	dst, av, bv := result.AsBool(), a.AsBool(), b.AsBool()
	for i := range dst {
		dst[i] = av[i] && bv[i]
	}
	return result
}

// Where selects x where cond is true, else y. All three tensors must share
// one shape; x and y one dtype.
func (be *Backend) Where(cond, x, y *tensor.RawTensor) *tensor.RawTensor {
	if cond.DType() != tensor.Bool {
		panic(fmt.Sprintf("where: condition must be bool, got %s", cond.DType()))
	}
	if x.DType() != y.DType() {
		panic(fmt.Sprintf("where: dtype mismatch %s vs %s", x.DType(), y.DType()))
	}
	if !cond.Shape().Equal(x.Shape()) || !x.Shape().Equal(y.Shape()) {
		panic(fmt.Sprintf("where: shape mismatch %v / %v / %v", cond.Shape(), x.Shape(), y.Shape()))
	}
	if x.DType() == tensor.Float16 {
		return float32ToFloat16(be.Where(cond, float16ToFloat32(x), float16ToFloat32(y)))
	}

	result := tensor.MustNewRaw(x.Shape(), x.DType(), be.device)
	c := cond.AsBool()
	switch x.DType() {
	case tensor.Float32:
		whereSlice(result.AsFloat32(), c, x.AsFloat32(), y.AsFloat32())
	case tensor.Float64:
		whereSlice(result.AsFloat64(), c, x.AsFloat64(), y.AsFloat64())
	case tensor.Int32:
		whereSlice(result.AsInt32(), c, x.AsInt32(), y.AsInt32())
	case tensor.Int64:
		whereSlice(result.AsInt64(), c, x.AsInt64(), y.AsInt64())
	default:
		panic(fmt.Sprintf("where: unsupported dtype %s", x.DType()))
	}
	return result
}

func whereSlice[T number](dst []T, cond []bool, x, y []T) {
	for i := range dst {
		if cond[i] {
			dst[i] = x[i]
		} else {
			dst[i] = y[i]
		}
	}
}
