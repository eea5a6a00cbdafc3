// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package opmapper translates Paddle operator descriptors into
// frontend programs.
//
// Example:
//
//	program, names, err := opmapper.MapProgram("clip", feeds, ops)
package opmapper

import (
	"github.com/zzk0/CINN/frontend"
	"github.com/zzk0/CINN/internal/opmapper"
)

// OpDesc describes one operator: its type, named input and output
// slots, and attributes.
type OpDesc = opmapper.OpDesc

// VarDesc describes a fed variable by name, dtype and shape.
type VarDesc = opmapper.VarDesc

// Registry maps operator types to translation functions.
type Registry = opmapper.Registry

// NewRegistry creates a registry with the built-in operators
// registered.
func NewRegistry() *Registry {
	return opmapper.NewRegistry()
}

// MapProgram translates a list of operator descriptors into a program
// using the built-in registry. The returned map resolves descriptor
// variable names to program variable names.
func MapProgram(name string, feeds []VarDesc, ops []*OpDesc) (program *frontend.Program, names map[string]string, err error) {
	return NewRegistry().MapProgram(name, feeds, ops)
}
