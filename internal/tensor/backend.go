// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

// Backend is the contract every compute target implements. The reference
// implementation lives in internal/backend/cpu; internal/backend/webgpu
// implements the same surface with WGSL shaders where it has them.
//
// Kernels panic on shape or dtype violations: callers above the backend
// boundary (frontend, executor) validate first and report errors.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor
	Minimum(a, b *RawTensor) *RawTensor
	Maximum(a, b *RawTensor) *RawTensor

	// Element-wise unary operations.
	Neg(x *RawTensor) *RawTensor

	// Clip limits every element to [min, max]. The bounds are given as
	// float64 and converted to x's dtype before comparison. Callers encode
	// a missing bound as -Inf/+Inf (or the integer dtype limits).
	Clip(x *RawTensor, min, max float64) *RawTensor

	// Matrix operations. MatMul is strictly 2-D; BatchMatMul multiplies
	// [..., M, K] by [..., K, N] with equal batch dimensions.
	MatMul(a, b *RawTensor) *RawTensor
	BatchMatMul(a, b *RawTensor) *RawTensor

	// TriangularSolve solves op(A) X = B (leftSide) or X op(A) = B for X,
	// where A is [..., M, M] triangular and B is [..., M, K] (left) or
	// [..., K, M] (right). Batch dimensions broadcast by NumPy rules.
	// A singular pivot divides through and propagates Inf/NaN.
	TriangularSolve(a, b *RawTensor, leftSide, upper, transposeA, unitDiagonal bool) *RawTensor

	// Shape operations.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes ...int) *RawTensor
	BroadcastTo(x *RawTensor, shape Shape) *RawTensor

	// SumTo reduces x back to a broadcast origin shape by summing the
	// broadcast dimensions. The inverse of BroadcastTo; used by gradients.
	SumTo(x *RawTensor, shape Shape) *RawTensor

	// Comparison and selection.
	LowerEqual(a, b *RawTensor) *RawTensor // a <= b, Bool result
	And(a, b *RawTensor) *RawTensor        // logical AND on Bool tensors
	Where(cond, x, y *RawTensor) *RawTensor

	// Type conversion.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
