// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package opmapper translates framework operator descriptors into builder
// programs. Descriptors carry named input and output slots plus attributes,
// the way graph exporters emit them; each registered mapper knows how to
// lower one operator type onto the NetBuilder API.
package opmapper

import (
	"github.com/pkg/errors"

	"github.com/zzk0/CINN/internal/frontend"
	"github.com/zzk0/CINN/internal/tensor"
)

// OpDesc is a single operator descriptor: slot-named inputs and outputs
// plus attributes.
type OpDesc struct {
	Type    string
	Inputs  map[string][]string
	Outputs map[string][]string
	Attrs   map[string]any
}

// Input returns the sole variable name in a slot, or an error when the
// slot is absent or holds more than one name.
func (op *OpDesc) Input(slot string) (string, error) {
	names := op.Inputs[slot]
	if len(names) != 1 {
		return "", errors.Errorf("%s: input slot %q has %d names, want 1", op.Type, slot, len(names))
	}
	return names[0], nil
}

// OptionalInput returns the variable name in a slot when present.
func (op *OpDesc) OptionalInput(slot string) (string, bool) {
	names := op.Inputs[slot]
	if len(names) != 1 {
		return "", false
	}
	return names[0], true
}

// Output returns the sole variable name in an output slot.
func (op *OpDesc) Output(slot string) (string, error) {
	names := op.Outputs[slot]
	if len(names) != 1 {
		return "", errors.Errorf("%s: output slot %q has %d names, want 1", op.Type, slot, len(names))
	}
	return names[0], nil
}

// AttrFloat reads a float64 attribute, defaulting when absent.
func (op *OpDesc) AttrFloat(name string, def float64) float64 {
	if v, ok := op.Attrs[name].(float64); ok {
		return v
	}
	return def
}

// AttrBool reads a bool attribute, defaulting when absent.
func (op *OpDesc) AttrBool(name string, def bool) bool {
	if v, ok := op.Attrs[name].(bool); ok {
		return v
	}
	return def
}

// VarDesc declares a graph input variable.
type VarDesc struct {
	Name  string
	DType tensor.DataType
	Shape tensor.Shape
}

// Context carries mapping state: the builder under construction and the
// translation from descriptor variable names to builder variables.
type Context struct {
	Builder *frontend.NetBuilder
	vars    map[string]*frontend.Variable
}

// Var resolves a descriptor variable name.
func (ctx *Context) Var(name string) (*frontend.Variable, error) {
	v, ok := ctx.vars[name]
	if !ok {
		return nil, errors.Errorf("variable %q is not defined", name)
	}
	return v, nil
}

// SetVar binds a descriptor variable name to a builder variable.
func (ctx *Context) SetVar(name string, v *frontend.Variable) {
	ctx.vars[name] = v
}

// MapperFunc lowers one operator descriptor onto the builder.
type MapperFunc func(ctx *Context, op *OpDesc) error

// Registry maps operator types to mapper functions.
type Registry struct {
	mappers map[string]MapperFunc
}

// NewRegistry creates a registry with all built-in operator mappers.
func NewRegistry() *Registry {
	r := &Registry{mappers: make(map[string]MapperFunc)}
	r.Register("clip", mapClip)
	r.Register("triangular_solve", mapTriangularSolve)
	return r
}

// Register adds a mapper, replacing any previous one for the type.
func (r *Registry) Register(opType string, fn MapperFunc) {
	r.mappers[opType] = fn
}

// Get returns the mapper for an operator type.
func (r *Registry) Get(opType string) (MapperFunc, bool) {
	fn, ok := r.mappers[opType]
	return fn, ok
}

// SupportedOps returns all registered operator types.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.mappers))
	for op := range r.mappers {
		ops = append(ops, op)
	}
	return ops
}

// MapProgram lowers a descriptor list into a program. Feeds declare the
// graph inputs. The returned map translates descriptor variable names to
// program variable names, for use as fetches.
func (r *Registry) MapProgram(name string, feeds []VarDesc, ops []*OpDesc) (*frontend.Program, map[string]string, error) {
	ctx := &Context{
		Builder: frontend.NewNetBuilder(name),
		vars:    make(map[string]*frontend.Variable),
	}
	for _, feed := range feeds {
		v, err := ctx.Builder.CreateInput(feed.DType, feed.Shape, feed.Name)
		if err != nil {
			return nil, nil, err
		}
		ctx.SetVar(feed.Name, v)
	}
	for _, op := range ops {
		fn, ok := r.Get(op.Type)
		if !ok {
			return nil, nil, errors.Errorf("unsupported operator: %s", op.Type)
		}
		if err := fn(ctx, op); err != nil {
			return nil, nil, errors.Wrapf(err, "mapping %s", op.Type)
		}
	}
	prog, err := ctx.Builder.Build()
	if err != nil {
		return nil, nil, err
	}
	names := make(map[string]string, len(ctx.vars))
	for descName, v := range ctx.vars {
		names[descName] = v.Name
	}
	return prog, names, nil
}
