// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package executor runs built programs instruction by instruction on a
// tensor backend. Handing it an autodiff-wrapped backend records every
// executed primitive on the tape, so gradients of a program's outputs can
// be taken afterwards.
package executor

import (
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/zzk0/CINN/internal/frontend"
	"github.com/zzk0/CINN/internal/tensor"
)

// Executor runs programs on a fixed backend.
type Executor struct {
	backend tensor.Backend
}

// New creates an executor for the given backend.
func New(backend tensor.Backend) *Executor {
	return &Executor{backend: backend}
}

// Run executes the program with the given feeds and returns the fetched
// tensors in fetch order. Every program input must be fed with a tensor of
// the declared dtype and shape.
func (e *Executor) Run(p *frontend.Program, feeds map[string]*tensor.RawTensor, fetches []string) ([]*tensor.RawTensor, error) {
	env := make(map[string]*tensor.RawTensor, len(feeds)+len(p.Instructions))
	for _, in := range p.Inputs {
		fed, ok := feeds[in.Name]
		if !ok {
			return nil, errors.Errorf("program %q: input %q not fed", p.Name, in.Name)
		}
		if fed.DType() != in.DType {
			return nil, errors.Errorf("program %q: input %q expects %s, got %s", p.Name, in.Name, in.DType, fed.DType())
		}
		if !fed.Shape().Equal(in.Shape) {
			return nil, errors.Errorf("program %q: input %q expects shape %v, got %v", p.Name, in.Name, in.Shape, fed.Shape())
		}
		env[in.Name] = fed
	}

	for _, instr := range p.Instructions {
		klog.V(2).Infof("%s: %s", p.Name, instr)
		out, err := e.runInstruction(p, instr, env)
		if err != nil {
			return nil, errors.Wrapf(err, "program %q: %s", p.Name, instr)
		}
		env[instr.Outputs[0]] = out
	}

	results := make([]*tensor.RawTensor, len(fetches))
	for i, name := range fetches {
		r, ok := env[name]
		if !ok {
			return nil, errors.Errorf("program %q: fetch %q was never computed", p.Name, name)
		}
		results[i] = r
	}
	return results, nil
}

func (e *Executor) runInstruction(p *frontend.Program, instr *frontend.Instruction, env map[string]*tensor.RawTensor) (out *tensor.RawTensor, err error) {
	// Backend kernels panic on malformed operands.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%v", r)
		}
	}()

	in := func(i int) (*tensor.RawTensor, error) {
		if i >= len(instr.Inputs) {
			return nil, errors.Errorf("missing input %d", i)
		}
		v, ok := env[instr.Inputs[i]]
		if !ok {
			return nil, errors.Errorf("input %q not computed", instr.Inputs[i])
		}
		return v, nil
	}
	binary := func(f func(x, y *tensor.RawTensor) *tensor.RawTensor) (*tensor.RawTensor, error) {
		x, err := in(0)
		if err != nil {
			return nil, err
		}
		y, err := in(1)
		if err != nil {
			return nil, err
		}
		return f(x, y), nil
	}

	switch instr.Op {
	case frontend.OpConstScalar:
		v := p.MustVar(instr.Outputs[0])
		return tensor.FullRaw(v.Shape, v.DType, instr.AttrFloat("value", 0), e.backend.Device()), nil

	case frontend.OpIdentity:
		// Same-shape reshape shares the buffer and stays on the tape.
		x, err := in(0)
		if err != nil {
			return nil, err
		}
		return e.backend.Reshape(x, x.Shape()), nil

	case frontend.OpAdd:
		return binary(e.backend.Add)
	case frontend.OpSub:
		return binary(e.backend.Sub)
	case frontend.OpMul:
		return binary(e.backend.Mul)
	case frontend.OpDiv:
		return binary(e.backend.Div)
	case frontend.OpMinimum:
		return binary(e.backend.Minimum)
	case frontend.OpMaximum:
		return binary(e.backend.Maximum)

	case frontend.OpClip:
		if instr.AttrBool("has_min_tensor", false) || instr.AttrBool("has_max_tensor", false) {
			return nil, errors.New("clip with tensor bounds must be decomposed before execution")
		}
		x, err := in(0)
		if err != nil {
			return nil, err
		}
		lo := instr.AttrFloat("min", math.Inf(-1))
		hi := instr.AttrFloat("max", math.Inf(1))
		return e.backend.Clip(x, lo, hi), nil

	case frontend.OpBroadcastTo:
		x, err := in(0)
		if err != nil {
			return nil, err
		}
		return e.backend.BroadcastTo(x, tensor.Shape(instr.AttrInts("shape"))), nil

	case frontend.OpReshape:
		x, err := in(0)
		if err != nil {
			return nil, err
		}
		return e.backend.Reshape(x, tensor.Shape(instr.AttrInts("shape"))), nil

	case frontend.OpTranspose:
		x, err := in(0)
		if err != nil {
			return nil, err
		}
		return e.backend.Transpose(x, instr.AttrInts("axes")...), nil

	case frontend.OpCast:
		x, err := in(0)
		if err != nil {
			return nil, err
		}
		name, _ := instr.Attrs["dtype"].(string)
		dtype, err := tensor.ParseDataType(name)
		if err != nil {
			return nil, err
		}
		return e.backend.Cast(x, dtype), nil

	case frontend.OpMatMul:
		return binary(func(x, y *tensor.RawTensor) *tensor.RawTensor {
			if x.Shape().Rank() == 2 {
				return e.backend.MatMul(x, y)
			}
			return e.backend.BatchMatMul(x, y)
		})

	case frontend.OpTriangularSolve:
		return binary(func(a, b *tensor.RawTensor) *tensor.RawTensor {
			return e.backend.TriangularSolve(a, b,
				instr.AttrBool("left_side", true),
				instr.AttrBool("upper", true),
				instr.AttrBool("transpose_a", false),
				instr.AttrBool("unit_diagonal", false))
		})

	default:
		return nil, errors.Errorf("unknown op %q", instr.Op)
	}
}
