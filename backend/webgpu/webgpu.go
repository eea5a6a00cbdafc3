//go:build windows

// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated tensor
// operations.
//
// Element-wise primitives, clip and the triangular solve kernel run as
// WGSL compute shaders; everything else delegates to the CPU backend so
// the full tensor.Backend surface stays usable.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//	    backend = autodiff.New(gpu)
//	}
package webgpu

import (
	internalwebgpu "github.com/zzk0/CINN/internal/backend/webgpu"
	"github.com/zzk0/CINN/tensor"
)

// Backend is the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a WebGPU backend. Call Release when done to free GPU
// resources. Returns an error when no compatible adapter or native
// library is present.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU adapter can be acquired,
// allowing graceful fallback to the CPU backend.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
