// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package frontend provides the public graph-building API.
//
// Programs are assembled with a NetBuilder, optimized by the pass
// pipeline and executed on any backend:
//
//	builder := frontend.NewNetBuilder("clip")
//	x, _ := builder.CreateInput(tensor.Float32, tensor.Shape{2, 3}, "x")
//	lo, hi := -0.2, 0.2
//	out, _ := builder.Clip(x, &lo, &hi)
//	program, _ := builder.Build()
//
//	fetches := []string{out.Name}
//	if err := frontend.Optimize(program, fetches); err != nil {
//	    log.Fatal(err)
//	}
//	results, err := executor.New(cpu.New()).Run(program, feeds, fetches)
package frontend

import (
	"github.com/zzk0/CINN/internal/frontend"
	"github.com/zzk0/CINN/internal/frontend/passes"
	"github.com/zzk0/CINN/internal/tensor"
)

// NetBuilder assembles a Program instruction by instruction.
type NetBuilder = frontend.NetBuilder

// Program is an ordered list of instructions over named variables.
type Program = frontend.Program

// Variable is a named, typed, shaped value in a program.
type Variable = frontend.Variable

// Instruction is a single operation in a program.
type Instruction = frontend.Instruction

// Pass rewrites a program in place.
type Pass = passes.Pass

// NewNetBuilder creates a builder for a named program.
func NewNetBuilder(name string) *NetBuilder {
	return frontend.NewNetBuilder(name)
}

// DefaultPasses returns the standard pipeline: clip decomposition,
// triangular solve normalization and dead code elimination.
func DefaultPasses() []Pass {
	return passes.Default()
}

// Optimize runs the default pass pipeline over a program, preserving
// the fetched outputs.
func Optimize(p *Program, fetches []string) error {
	return passes.Run(p, fetches, passes.Default()...)
}

// InferTriangularSolveShape computes the output shape of a triangular
// solve over the given operand shapes.
func InferTriangularSolveShape(a, b tensor.Shape, leftSide bool) (tensor.Shape, error) {
	return frontend.InferTriangularSolveShape(a, b, leftSide)
}
