// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// The package wraps any tensor backend with a gradient tape. Operations
// run through the wrapped backend are recorded, and Backward walks the
// tape to produce gradients for every input.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
//	y := backend.Clip(x, -0.2, 0.2)
//	grads := backend.Backward(y)
package autodiff

import (
	"github.com/zzk0/CINN/internal/autodiff"
	"github.com/zzk0/CINN/internal/tensor"
)

// Backend is the autodiff-enabled backend decorator.
type Backend[B tensor.Backend] = autodiff.Backend[B]

// GradientTape records differentiable operations for backpropagation.
type GradientTape = autodiff.GradientTape

// New wraps a backend with gradient recording.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}
