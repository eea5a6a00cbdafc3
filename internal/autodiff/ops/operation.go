// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops defines the differentiable operations recorded on the
// gradient tape. Each op keeps its forward inputs/output and knows how to
// turn the output gradient into input gradients.
package ops

import "github.com/zzk0/CINN/internal/tensor"

// Operation is one recorded step of the forward pass.
type Operation interface {
	// Backward computes gradients for the inputs given the output
	// gradient. A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by this operation.
	Output() *tensor.RawTensor
}
