// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations.
//
// The package defines the core types shared by every backend:
//   - Tensor[T, B]: high-level generic tensor with type safety
//   - RawTensor: low-level refcounted tensor buffer
//   - Backend: interface for device-specific compute implementations
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
package tensor

import (
	"math/rand"

	"github.com/zzk0/CINN/internal/tensor"
)

// DType is a constraint for typed tensor element types.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float16 DataType = tensor.Float16
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// ParseDataType resolves a data type by name, e.g. "float32".
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// BroadcastShapes computes the broadcast result shape of two shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// RawTensor is the low-level tensor representation. It carries shape,
// dtype and a reference-counted data buffer; typed access goes through
// AsFloat32 and friends.
type RawTensor = tensor.RawTensor

// Backend is the compute interface implemented by backend/cpu,
// backend/webgpu and the autodiff decorator.
type Backend = tensor.Backend

// Tensor is a generic type-safe tensor bound to a backend.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// New creates a tensor from a raw tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw creates an uninitialized raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// FromSlice creates a tensor from a Go slice.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// RandomUniform creates a raw tensor with values drawn uniformly from
// [low, high).
func RandomUniform(shape Shape, dtype DataType, low, high float64, rng *rand.Rand) *RawTensor {
	return tensor.RandomUniform(shape, dtype, low, high, rng)
}

// FromFloat64s creates a raw tensor of the given dtype from float64
// values, converting each element.
func FromFloat64s(values []float64, shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.FromFloat64s(values, shape, dtype)
}
