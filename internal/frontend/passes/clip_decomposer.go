// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package passes

import (
	"math"

	"github.com/zzk0/CINN/internal/frontend"
	"github.com/zzk0/CINN/internal/tensor"
)

// ClipDecomposer lowers clip into minimum and maximum primitives:
//
//	clip(x, lo, hi) = maximum(minimum(x, hi), lo)
//
// Scalar bounds become const_scalar instructions; bounds whose shape does
// not match x are broadcast first. A clip with neither bound degenerates
// to identity.
type ClipDecomposer struct{}

func (*ClipDecomposer) Name() string { return "clip_decomposer" }

func (*ClipDecomposer) Apply(p *frontend.Program, fetches []string) error {
	var rewritten []*frontend.Instruction
	for _, instr := range p.Instructions {
		if instr.Op != frontend.OpClip {
			rewritten = append(rewritten, instr)
			continue
		}
		rewritten = append(rewritten, decomposeClip(p, instr)...)
	}
	p.Instructions = rewritten
	return nil
}

func decomposeClip(p *frontend.Program, instr *frontend.Instruction) []*frontend.Instruction {
	x := p.MustVar(instr.Inputs[0])
	out := p.MustVar(instr.Outputs[0])

	lo := instr.AttrFloat("min", math.Inf(-1))
	hi := instr.AttrFloat("max", math.Inf(1))
	hasMinTensor := instr.AttrBool("has_min_tensor", false)
	hasMaxTensor := instr.AttrBool("has_max_tensor", false)
	hasMin := hasMinTensor || !math.IsInf(lo, -1)
	hasMax := hasMaxTensor || !math.IsInf(hi, 1)

	var loVar, hiVar *frontend.Variable
	boundIdx := 1
	if hasMinTensor {
		loVar = p.MustVar(instr.Inputs[boundIdx])
		boundIdx++
	}
	if hasMaxTensor {
		hiVar = p.MustVar(instr.Inputs[boundIdx])
	}

	var result []*frontend.Instruction
	emit := func(op string, inputs []*frontend.Variable, output *frontend.Variable, attrs map[string]any) {
		names := make([]string, len(inputs))
		for i, in := range inputs {
			names[i] = in.Name
		}
		result = append(result, &frontend.Instruction{
			Op:      op,
			Inputs:  names,
			Outputs: []string{output.Name},
			Attrs:   attrs,
		})
	}
	materialize := func(bound *frontend.Variable, value float64) *frontend.Variable {
		if bound == nil {
			bound = p.NewTmpVar("clip_bound", x.DType, tensor.Shape{1})
			emit(frontend.OpConstScalar, nil, bound, map[string]any{"value": value})
		}
		if !bound.Shape.Equal(x.Shape) {
			full := p.NewTmpVar("clip_bound_bc", x.DType, x.Shape)
			emit(frontend.OpBroadcastTo, []*frontend.Variable{bound}, full,
				map[string]any{"shape": []int(x.Shape.Clone())})
			bound = full
		}
		return bound
	}

	if !hasMin && !hasMax {
		emit(frontend.OpIdentity, []*frontend.Variable{x}, out, nil)
		return result
	}

	cur := x
	if hasMax {
		hiFull := materialize(hiVar, hi)
		dst := out
		if hasMin {
			dst = p.NewTmpVar("clip_min", x.DType, x.Shape)
		}
		emit(frontend.OpMinimum, []*frontend.Variable{cur, hiFull}, dst, nil)
		cur = dst
	}
	if hasMin {
		loFull := materialize(loVar, lo)
		emit(frontend.OpMaximum, []*frontend.Variable{cur, loFull}, out, nil)
	}
	return result
}
