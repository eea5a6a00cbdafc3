// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzk0/CINN/internal/frontend"
	"github.com/zzk0/CINN/internal/tensor"
)

func ptr(v float64) *float64 { return &v }

func opSequence(p *frontend.Program) []string {
	ops := make([]string, len(p.Instructions))
	for i, instr := range p.Instructions {
		ops[i] = instr.Op
	}
	return ops
}

func TestClipDecomposerScalarBounds(t *testing.T) {
	nb := frontend.NewNetBuilder("clip")
	x, _ := nb.CreateInput(tensor.Float32, tensor.Shape{2, 3}, "x")
	out, err := nb.Clip(x, ptr(-0.2), ptr(0.2))
	require.NoError(t, err)
	prog, err := nb.Build()
	require.NoError(t, err)

	require.NoError(t, Run(prog, []string{out.Name}, &ClipDecomposer{}))

	assert.Equal(t, []string{
		frontend.OpConstScalar,
		frontend.OpBroadcastTo,
		frontend.OpMinimum,
		frontend.OpConstScalar,
		frontend.OpBroadcastTo,
		frontend.OpMaximum,
	}, opSequence(prog))

	// the final instruction must keep the original output name
	last := prog.Instructions[len(prog.Instructions)-1]
	assert.Equal(t, []string{out.Name}, last.Outputs)
}

func TestClipDecomposerMinOnly(t *testing.T) {
	nb := frontend.NewNetBuilder("clip")
	x, _ := nb.CreateInput(tensor.Float32, tensor.Shape{4}, "x")
	out, err := nb.Clip(x, ptr(-0.2), nil)
	require.NoError(t, err)
	prog, err := nb.Build()
	require.NoError(t, err)

	require.NoError(t, Run(prog, []string{out.Name}, &ClipDecomposer{}))

	assert.Equal(t, []string{
		frontend.OpConstScalar,
		frontend.OpBroadcastTo,
		frontend.OpMaximum,
	}, opSequence(prog))
}

func TestClipDecomposerNoBounds(t *testing.T) {
	nb := frontend.NewNetBuilder("clip")
	x, _ := nb.CreateInput(tensor.Float32, tensor.Shape{4}, "x")
	out, err := nb.Clip(x, nil, nil)
	require.NoError(t, err)
	prog, err := nb.Build()
	require.NoError(t, err)

	require.NoError(t, Run(prog, []string{out.Name}, &ClipDecomposer{}))

	assert.Equal(t, []string{frontend.OpIdentity}, opSequence(prog))
}

func TestClipDecomposerTensorBound(t *testing.T) {
	nb := frontend.NewNetBuilder("clip")
	x, _ := nb.CreateInput(tensor.Float32, tensor.Shape{2, 3}, "x")
	hi, _ := nb.CreateInput(tensor.Float32, tensor.Shape{1}, "hi")
	out, err := nb.ClipWithBounds(x, nil, hi, ptr(0), nil)
	require.NoError(t, err)
	prog, err := nb.Build()
	require.NoError(t, err)

	require.NoError(t, Run(prog, []string{out.Name}, &ClipDecomposer{}))

	// the max side reuses the bound input rather than a constant
	assert.Equal(t, []string{
		frontend.OpBroadcastTo,
		frontend.OpMinimum,
		frontend.OpConstScalar,
		frontend.OpBroadcastTo,
		frontend.OpMaximum,
	}, opSequence(prog))
	assert.Equal(t, "hi", prog.Instructions[0].Inputs[0])
}

func TestTriangularSolveNormalizerLiftsRank2(t *testing.T) {
	nb := frontend.NewNetBuilder("solve")
	a, _ := nb.CreateInput(tensor.Float32, tensor.Shape{1, 3, 3}, "a")
	b, _ := nb.CreateInput(tensor.Float32, tensor.Shape{3, 1}, "b")
	out, err := nb.TriangularSolve(a, b, true, true, false, false)
	require.NoError(t, err)
	prog, err := nb.Build()
	require.NoError(t, err)

	require.NoError(t, Run(prog, []string{out.Name}, &TriangularSolveNormalizer{}))

	assert.Equal(t, []string{
		frontend.OpReshape,
		frontend.OpTriangularSolve,
	}, opSequence(prog))

	solve := prog.Instructions[1]
	lifted := prog.MustVar(solve.Inputs[1])
	assert.True(t, lifted.Shape.Equal(tensor.Shape{1, 3, 1}), "shape = %v", lifted.Shape)
	assert.True(t, solve.AttrBool("left_side", false))
}

func TestTriangularSolveNormalizerBroadcastsBatches(t *testing.T) {
	nb := frontend.NewNetBuilder("solve")
	a, _ := nb.CreateInput(tensor.Float32, tensor.Shape{3, 3, 3}, "a")
	b, _ := nb.CreateInput(tensor.Float32, tensor.Shape{2, 2, 3, 3, 4}, "b")
	out, err := nb.TriangularSolve(a, b, true, true, false, false)
	require.NoError(t, err)
	prog, err := nb.Build()
	require.NoError(t, err)

	require.NoError(t, Run(prog, []string{out.Name}, &TriangularSolveNormalizer{}))

	solve := prog.Instructions[len(prog.Instructions)-1]
	na := prog.MustVar(solve.Inputs[0])
	nbv := prog.MustVar(solve.Inputs[1])
	assert.True(t, na.Shape.Equal(tensor.Shape{2, 2, 3, 3, 3}), "A shape = %v", na.Shape)
	assert.True(t, nbv.Shape.Equal(tensor.Shape{2, 2, 3, 3, 4}), "B shape = %v", nbv.Shape)
}

func TestTriangularSolveNormalizerNoChange(t *testing.T) {
	nb := frontend.NewNetBuilder("solve")
	a, _ := nb.CreateInput(tensor.Float32, tensor.Shape{5, 3, 3}, "a")
	b, _ := nb.CreateInput(tensor.Float32, tensor.Shape{5, 3, 1}, "b")
	out, err := nb.TriangularSolve(a, b, true, true, false, false)
	require.NoError(t, err)
	prog, err := nb.Build()
	require.NoError(t, err)

	require.NoError(t, Run(prog, []string{out.Name}, &TriangularSolveNormalizer{}))

	assert.Equal(t, []string{frontend.OpTriangularSolve}, opSequence(prog))
	assert.Equal(t, []string{"a", "b"}, prog.Instructions[0].Inputs)
}

func TestDeadCodeElimination(t *testing.T) {
	nb := frontend.NewNetBuilder("dce")
	x, _ := nb.CreateInput(tensor.Float32, tensor.Shape{2}, "x")
	y, _ := nb.CreateInput(tensor.Float32, tensor.Shape{2}, "y")
	kept, err := nb.Add(x, y)
	require.NoError(t, err)
	_, err = nb.Mul(x, y) // dead
	require.NoError(t, err)
	prog, err := nb.Build()
	require.NoError(t, err)

	require.NoError(t, Run(prog, []string{kept.Name}, &DeadCodeElimination{}))

	assert.Equal(t, []string{frontend.OpAdd}, opSequence(prog))
}

func TestDeadCodeEliminationKeepsChains(t *testing.T) {
	nb := frontend.NewNetBuilder("dce")
	x, _ := nb.CreateInput(tensor.Float32, tensor.Shape{2}, "x")
	y, _ := nb.CreateInput(tensor.Float32, tensor.Shape{2}, "y")
	mid, err := nb.Add(x, y)
	require.NoError(t, err)
	out, err := nb.Mul(mid, y)
	require.NoError(t, err)
	prog, err := nb.Build()
	require.NoError(t, err)

	require.NoError(t, Run(prog, []string{out.Name}, &DeadCodeElimination{}))

	assert.Equal(t, []string{frontend.OpAdd, frontend.OpMul}, opSequence(prog))
}

func TestDefaultPipeline(t *testing.T) {
	nb := frontend.NewNetBuilder("pipeline")
	x, _ := nb.CreateInput(tensor.Float32, tensor.Shape{2, 3}, "x")
	out, err := nb.Clip(x, ptr(0), ptr(1))
	require.NoError(t, err)
	prog, err := nb.Build()
	require.NoError(t, err)

	require.NoError(t, Run(prog, []string{out.Name}, Default()...))

	for _, instr := range prog.Instructions {
		assert.NotEqual(t, frontend.OpClip, instr.Op, "clip must be fully lowered")
	}
}
