// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package passes

import (
	"github.com/pkg/errors"
	"github.com/zzk0/CINN/internal/frontend"
	"github.com/zzk0/CINN/internal/tensor"
)

// TriangularSolveNormalizer rewrites triangular_solve so both operands
// reach the kernel with identical batch dimensions: 2-D operands are
// lifted to a single batch, then unequal batch dimensions are broadcast.
// After this pass the kernel never needs to broadcast internally.
type TriangularSolveNormalizer struct{}

func (*TriangularSolveNormalizer) Name() string { return "triangular_solve_normalizer" }

func (*TriangularSolveNormalizer) Apply(p *frontend.Program, fetches []string) error {
	var rewritten []*frontend.Instruction
	for _, instr := range p.Instructions {
		if instr.Op != frontend.OpTriangularSolve {
			rewritten = append(rewritten, instr)
			continue
		}
		extra, normalized, err := normalizeSolve(p, instr)
		if err != nil {
			return err
		}
		rewritten = append(rewritten, extra...)
		rewritten = append(rewritten, normalized)
	}
	p.Instructions = rewritten
	return nil
}

func normalizeSolve(p *frontend.Program, instr *frontend.Instruction) ([]*frontend.Instruction, *frontend.Instruction, error) {
	a := p.MustVar(instr.Inputs[0])
	b := p.MustVar(instr.Inputs[1])

	batch, _, err := tensor.BroadcastShapes(a.Shape[:a.Shape.Rank()-2], b.Shape[:b.Shape.Rank()-2])
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: batch dims of %v and %v", instr, a.Shape, b.Shape)
	}

	var extra []*frontend.Instruction
	normalize := func(v *frontend.Variable, prefix string) *frontend.Variable {
		target := append(batch.Clone(), v.Shape[v.Shape.Rank()-2], v.Shape[v.Shape.Rank()-1])
		if v.Shape.Equal(target) {
			return v
		}
		if v.Shape.Rank() == 2 {
			lifted := p.NewTmpVar(prefix+"_lift", v.DType, append(tensor.Shape{1}, v.Shape...))
			extra = append(extra, &frontend.Instruction{
				Op:      frontend.OpReshape,
				Inputs:  []string{v.Name},
				Outputs: []string{lifted.Name},
				Attrs:   map[string]any{"shape": []int(lifted.Shape.Clone())},
			})
			v = lifted
		}
		if v.Shape.Equal(target) {
			return v
		}
		full := p.NewTmpVar(prefix+"_bc", v.DType, target)
		extra = append(extra, &frontend.Instruction{
			Op:      frontend.OpBroadcastTo,
			Inputs:  []string{v.Name},
			Outputs: []string{full.Name},
			Attrs:   map[string]any{"shape": []int(target.Clone())},
		})
		return full
	}

	na := normalize(a, "solve_a")
	nb := normalize(b, "solve_b")

	normalized := &frontend.Instruction{
		Op:      frontend.OpTriangularSolve,
		Inputs:  []string{na.Name, nb.Name},
		Outputs: instr.Outputs,
		Attrs:   instr.Attrs,
	}
	return extra, normalized, nil
}
