// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu implements the reference backend: plain Go kernels for every
// operation in the tensor.Backend contract. Compiled programs are checked
// against the results produced here.
package cpu

import (
	"fmt"

	"github.com/zzk0/CINN/internal/parallel"
	"github.com/zzk0/CINN/internal/tensor"
)

// Backend implements tensor operations on the CPU.
type Backend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend.
func New() *Backend {
	return &Backend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (be *Backend) Name() string { return "CPU" }

// Device returns the compute device.
func (be *Backend) Device() tensor.Device { return be.device }

// Add performs element-wise addition with NumPy-style broadcasting.
func (be *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return be.binary(opAdd, a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func (be *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return be.binary(opSub, a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func (be *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return be.binary(opMul, a, b)
}

// Div performs element-wise division with broadcasting.
func (be *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return be.binary(opDiv, a, b)
}

// Minimum computes the element-wise minimum with broadcasting.
func (be *Backend) Minimum(a, b *tensor.RawTensor) *tensor.RawTensor {
	return be.binary(opMin, a, b)
}

// Maximum computes the element-wise maximum with broadcasting.
func (be *Backend) Maximum(a, b *tensor.RawTensor) *tensor.RawTensor {
	return be.binary(opMax, a, b)
}

// binaryOp identifies an element-wise binary kernel.
type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
	opMin
	opMax
)

func (op binaryOp) String() string {
	return [...]string{"add", "sub", "mul", "div", "minimum", "maximum"}[op]
}

func (be *Backend) binary(op binaryOp, a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}
	if a.DType() == tensor.Float16 {
		// Half floats compute in float32 and round back.
		return float32ToFloat16(be.binary(op, float16ToFloat32(a), float16ToFloat32(b)))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	result := tensor.MustNewRaw(outShape, a.DType(), be.device)

	if !needsBroadcast {
		switch a.DType() {
		case tensor.Float32:
			binarySlice(op, result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
		case tensor.Float64:
			binarySlice(op, result.AsFloat64(), a.AsFloat64(), b.AsFloat64())
		case tensor.Int32:
			binarySlice(op, result.AsInt32(), a.AsInt32(), b.AsInt32())
		case tensor.Int64:
			binarySlice(op, result.AsInt64(), a.AsInt64(), b.AsInt64())
		default:
			panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
		}
		return result
	}

	switch a.DType() {
	case tensor.Float32:
		binaryBroadcast(op, result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape)
	case tensor.Float64:
		binaryBroadcast(op, result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape)
	case tensor.Int32:
		binaryBroadcast(op, result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape)
	case tensor.Int64:
		binaryBroadcast(op, result.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}
	return result
}

// Neg negates every element.
func (be *Backend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() == tensor.Float16 {
		return float32ToFloat16(be.Neg(float16ToFloat32(x)))
	}
	result := tensor.MustNewRaw(x.Shape(), x.DType(), be.device)
	switch x.DType() {
	case tensor.Float32:
		negSlice(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		negSlice(result.AsFloat64(), x.AsFloat64())
	case tensor.Int32:
		negSlice(result.AsInt32(), x.AsInt32())
	case tensor.Int64:
		negSlice(result.AsInt64(), x.AsInt64())
	default:
		panic(fmt.Sprintf("neg: unsupported dtype %s", x.DType()))
	}
	return result
}
