// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"fmt"
	"math/rand"

	"github.com/x448/float16"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, oneValue[T](), b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// FromSlice creates a tensor from a Go slice; the data is copied.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t := Zeros[T, B](shape, b)
	copy(t.Data(), data)
	return t, nil
}

func oneValue[T DType]() T {
	var dummy T
	var one any
	switch any(dummy).(type) {
	case float32:
		one = float32(1)
	case float64:
		one = float64(1)
	case int32:
		one = int32(1)
	case int64:
		one = int64(1)
	case uint8:
		one = uint8(1)
	case bool:
		one = true
	}
	return one.(T)
}

// OnesRaw creates a dtype-erased tensor of ones, used as the backward seed.
func OnesRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	r := MustNewRaw(shape, dtype, device)
	switch dtype {
	case Float16:
		one := float16.Fromfloat32(1)
		data := r.AsFloat16()
		for i := range data {
			data[i] = one
		}
	case Float32:
		fillOnes(r.AsFloat32())
	case Float64:
		fillOnes(r.AsFloat64())
	case Int32:
		fillOnes(r.AsInt32())
	case Int64:
		fillOnes(r.AsInt64())
	case Uint8:
		fillOnes(r.AsUint8())
	default:
		panic(fmt.Sprintf("OnesRaw: unsupported dtype %s", dtype))
	}
	return r
}

func fillOnes[T float32 | float64 | int32 | int64 | uint8](data []T) {
	for i := range data {
		data[i] = 1
	}
}

// FullRaw creates a dtype-erased tensor filled with value converted to the
// requested dtype.
func FullRaw(shape Shape, dtype DataType, value float64, device Device) *RawTensor {
	r := MustNewRaw(shape, dtype, device)
	switch dtype {
	case Float16:
		v := float16.Fromfloat32(float32(value))
		data := r.AsFloat16()
		for i := range data {
			data[i] = v
		}
	case Float32:
		fillValue(r.AsFloat32(), float32(value))
	case Float64:
		fillValue(r.AsFloat64(), value)
	case Int32:
		fillValue(r.AsInt32(), int32(value))
	case Int64:
		fillValue(r.AsInt64(), int64(value))
	case Uint8:
		fillValue(r.AsUint8(), uint8(value))
	case Bool:
		fillValue(r.AsBool(), value != 0)
	default:
		panic(fmt.Sprintf("FullRaw: unsupported dtype %s", dtype))
	}
	return r
}

func fillValue[T any](data []T, v T) {
	for i := range data {
		data[i] = v
	}
}

// RandomUniform creates a tensor with values drawn uniformly from
// [low, high). Integer dtypes draw whole numbers from the same interval.
// The test harness uses this as its input generator; pass a seeded rng for
// reproducible cases. Uses math/rand intentionally: statistical quality is
// all that matters here.
func RandomUniform(shape Shape, dtype DataType, low, high float64, rng *rand.Rand) *RawTensor {
	r := MustNewRaw(shape, dtype, CPU)
	sample := func() float64 { return low + rng.Float64()*(high-low) }
	switch dtype {
	case Float16:
		data := r.AsFloat16()
		for i := range data {
			data[i] = float16.Fromfloat32(float32(sample()))
		}
	case Float32:
		data := r.AsFloat32()
		for i := range data {
			data[i] = float32(sample())
		}
	case Float64:
		data := r.AsFloat64()
		for i := range data {
			data[i] = sample()
		}
	case Int32:
		data := r.AsInt32()
		for i := range data {
			data[i] = int32(low) + rng.Int31n(int32(high-low))
		}
	case Int64:
		data := r.AsInt64()
		for i := range data {
			data[i] = int64(low) + rng.Int63n(int64(high-low))
		}
	case Uint8:
		data := r.AsUint8()
		for i := range data {
			data[i] = uint8(int(low) + rng.Intn(int(high-low)))
		}
	case Bool:
		data := r.AsBool()
		for i := range data {
			data[i] = rng.Intn(2) == 1
		}
	default:
		panic(fmt.Sprintf("RandomUniform: unsupported dtype %s", dtype))
	}
	return r
}

// FromFloat64s creates a dtype-erased tensor from float64 literals,
// converting to the requested dtype. Handy for expected-output literals.
func FromFloat64s(values []float64, shape Shape, dtype DataType) (*RawTensor, error) {
	if shape.NumElements() != len(values) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(values))
	}
	r := MustNewRaw(shape, dtype, CPU)
	switch dtype {
	case Float16:
		data := r.AsFloat16()
		for i, v := range values {
			data[i] = float16.Fromfloat32(float32(v))
		}
	case Float32:
		data := r.AsFloat32()
		for i, v := range values {
			data[i] = float32(v)
		}
	case Float64:
		copy(r.AsFloat64(), values)
	case Int32:
		data := r.AsInt32()
		for i, v := range values {
			data[i] = int32(v)
		}
	case Int64:
		data := r.AsInt64()
		for i, v := range values {
			data[i] = int64(v)
		}
	default:
		return nil, fmt.Errorf("FromFloat64s: unsupported dtype %s", dtype)
	}
	return r, nil
}
