// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for tensor operations.
//
// The backend implements every operation of the tensor.Backend
// interface:
//   - element-wise arithmetic with NumPy-compatible broadcasting
//   - clip, comparison and selection kernels
//   - matrix multiplication and batched triangular solve
//   - shape manipulation (reshape, transpose, broadcast, reduce)
//
// Float16 tensors are computed by converting through float32. Large
// kernels split their work across goroutines via internal/parallel.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := backend.Add(x.Raw(), y.Raw())
//
// The backend holds no mutable state and is safe for concurrent use.
package cpu
