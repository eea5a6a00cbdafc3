// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package frontend provides the NetBuilder graph API: programs are built
// op by op, rewritten by the pass pipeline, and handed to the executor.
package frontend

import (
	"fmt"
	"strings"

	"github.com/zzk0/CINN/internal/tensor"
)

// Operation names understood by the pass pipeline and the executor.
const (
	OpConstScalar     = "const_scalar"
	OpIdentity        = "identity"
	OpAdd             = "elementwise_add"
	OpSub             = "elementwise_sub"
	OpMul             = "elementwise_mul"
	OpDiv             = "elementwise_div"
	OpMinimum         = "minimum"
	OpMaximum         = "maximum"
	OpClip            = "clip"
	OpBroadcastTo     = "broadcast_to"
	OpTranspose       = "transpose"
	OpReshape         = "reshape"
	OpCast            = "cast"
	OpMatMul          = "matmul"
	OpTriangularSolve = "triangular_solve"
)

// Variable is a named value in a program, with static dtype and shape.
type Variable struct {
	Name  string
	DType tensor.DataType
	Shape tensor.Shape
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s: %s%v", v.Name, v.DType, v.Shape)
}

// Instruction is one operation of a program: named inputs to named
// outputs, configured by attributes.
type Instruction struct {
	Op      string
	Inputs  []string
	Outputs []string
	Attrs   map[string]any
}

func (in *Instruction) String() string {
	return fmt.Sprintf("%s = %s(%s)", strings.Join(in.Outputs, ", "), in.Op, strings.Join(in.Inputs, ", "))
}

// AttrBool reads a bool attribute, defaulting when absent.
func (in *Instruction) AttrBool(name string, def bool) bool {
	if v, ok := in.Attrs[name].(bool); ok {
		return v
	}
	return def
}

// AttrFloat reads a float64 attribute, defaulting when absent.
func (in *Instruction) AttrFloat(name string, def float64) float64 {
	if v, ok := in.Attrs[name].(float64); ok {
		return v
	}
	return def
}

// AttrInts reads an []int attribute.
func (in *Instruction) AttrInts(name string) []int {
	if v, ok := in.Attrs[name].([]int); ok {
		return v
	}
	return nil
}

// Program is a built computation: a flat instruction list in definition
// order plus the variable table describing every value in it.
type Program struct {
	Name         string
	Inputs       []*Variable
	Instructions []*Instruction

	vars    map[string]*Variable
	counter int
}

// Var looks up a variable by name.
func (p *Program) Var(name string) (*Variable, bool) {
	v, ok := p.vars[name]
	return v, ok
}

// MustVar looks up a variable that the builder guarantees exists.
func (p *Program) MustVar(name string) *Variable {
	v, ok := p.vars[name]
	if !ok {
		panic(fmt.Sprintf("program %q has no variable %q", p.Name, name))
	}
	return v
}

// NewTmpVar registers a fresh intermediate variable; passes use it when
// they introduce instructions.
func (p *Program) NewTmpVar(prefix string, dtype tensor.DataType, shape tensor.Shape) *Variable {
	for {
		name := fmt.Sprintf("%s_%d", prefix, p.counter)
		p.counter++
		if _, taken := p.vars[name]; !taken {
			v := &Variable{Name: name, DType: dtype, Shape: shape.Clone()}
			p.vars[name] = v
			return v
		}
	}
}

func (p *Program) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "program %s {\n", p.Name)
	for _, in := range p.Inputs {
		fmt.Fprintf(&sb, "  input %s\n", in)
	}
	for _, instr := range p.Instructions {
		fmt.Fprintf(&sb, "  %s\n", instr)
	}
	sb.WriteString("}")
	return sb.String()
}
