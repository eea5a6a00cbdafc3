//go:build windows

// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package webgpu

import (
	"github.com/zzk0/CINN/internal/tensor"
)

// gpuBinaryOK reports whether a binary op can run on the device: float32
// operands of identical shape. Broadcasts go through the CPU fallback.
func gpuBinaryOK(x, y *tensor.RawTensor) bool {
	return x.DType() == tensor.Float32 && y.DType() == tensor.Float32 &&
		x.Shape().Equal(y.Shape())
}

func (b *Backend) binary(x, y *tensor.RawTensor, name, expr string, fallback func(x, y *tensor.RawTensor) *tensor.RawTensor) *tensor.RawTensor {
	if !gpuBinaryOK(x, y) {
		return fallback(x, y)
	}
	out, err := b.runBinaryOp(x, y, name, binaryShaderFor(expr))
	if err != nil {
		panic("webgpu: " + name + ": " + err.Error())
	}
	return out
}

// Add performs element-wise addition.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, "add", "a[idx] + b[idx]", b.fallback.Add)
}

// Sub performs element-wise subtraction.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, "sub", "a[idx] - b[idx]", b.fallback.Sub)
}

// Mul performs element-wise multiplication.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, "mul", "a[idx] * b[idx]", b.fallback.Mul)
}

// Div performs element-wise division.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, "div", "a[idx] / b[idx]", b.fallback.Div)
}

// Minimum computes the element-wise minimum.
func (b *Backend) Minimum(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, "minimum", "min(a[idx], b[idx])", b.fallback.Minimum)
}

// Maximum computes the element-wise maximum.
func (b *Backend) Maximum(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, "maximum", "max(a[idx], b[idx])", b.fallback.Maximum)
}

// Neg negates every element.
func (b *Backend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.fallback.Neg(x)
	}
	out, err := b.runUnaryOp(x, "neg", negShader)
	if err != nil {
		panic("webgpu: Neg: " + err.Error())
	}
	return out
}

// Clip limits elements to [min, max].
func (b *Backend) Clip(x *tensor.RawTensor, min, max float64) *tensor.RawTensor {
	if min > max {
		panic("webgpu: clip: min > max")
	}
	if x.DType() != tensor.Float32 {
		return b.fallback.Clip(x, min, max)
	}
	out, err := b.runClip(x, min, max)
	if err != nil {
		panic("webgpu: Clip: " + err.Error())
	}
	return out
}

// TriangularSolve solves op(A) X = B (or X op(A) = B). The shader covers
// left-side float32 systems with equal batch dimensions; everything else
// goes through the CPU kernel.
func (b *Backend) TriangularSolve(a, x *tensor.RawTensor, leftSide, upper, transposeA, unitDiagonal bool) *tensor.RawTensor {
	if !leftSide || a.DType() != tensor.Float32 || x.DType() != tensor.Float32 ||
		a.Shape().Rank() != x.Shape().Rank() ||
		!a.Shape()[:a.Shape().Rank()-2].Equal(x.Shape()[:x.Shape().Rank()-2]) {
		return b.fallback.TriangularSolve(a, x, leftSide, upper, transposeA, unitDiagonal)
	}
	out, err := b.runTriangularSolve(a, x, upper, transposeA, unitDiagonal)
	if err != nil {
		panic("webgpu: TriangularSolve: " + err.Error())
	}
	return out
}

// MatMul multiplies 2-D matrices on the CPU fallback.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.MatMul(x, y)
}

// BatchMatMul multiplies batched matrices on the CPU fallback.
func (b *Backend) BatchMatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.BatchMatMul(x, y)
}

// Reshape changes the shape without copying.
func (b *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.fallback.Reshape(x, shape)
}

// Transpose permutes dimensions.
func (b *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return b.fallback.Transpose(x, axes...)
}

// BroadcastTo materializes a broadcast.
func (b *Backend) BroadcastTo(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.fallback.BroadcastTo(x, shape)
}

// SumTo reduces back to a broadcast origin shape.
func (b *Backend) SumTo(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.fallback.SumTo(x, shape)
}

// LowerEqual compares element-wise.
func (b *Backend) LowerEqual(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.LowerEqual(x, y)
}

// And combines Bool tensors.
func (b *Backend) And(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.And(x, y)
}

// Where selects elements by condition.
func (b *Backend) Where(cond, x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Where(cond, x, y)
}

// Cast converts dtypes.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return b.fallback.Cast(x, dtype)
}
