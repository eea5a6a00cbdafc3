// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package executor runs compiled programs on a tensor backend.
//
// Example:
//
//	exec := executor.New(cpu.New())
//	results, err := exec.Run(program, feeds, fetches)
package executor

import (
	"github.com/zzk0/CINN/internal/executor"
	"github.com/zzk0/CINN/internal/tensor"
)

// Executor evaluates program instructions in order against a backend.
type Executor = executor.Executor

// New creates an executor bound to the given backend.
func New(backend tensor.Backend) *Executor {
	return executor.New(backend)
}
