// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package opmapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzk0/CINN/internal/frontend"
	"github.com/zzk0/CINN/internal/tensor"
)

func TestRegistrySupportedOps(t *testing.T) {
	r := NewRegistry()
	assert.ElementsMatch(t, []string{"clip", "triangular_solve"}, r.SupportedOps())
}

func TestRegistryUnsupportedOp(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.MapProgram("p", nil, []*OpDesc{{Type: "conv2d"}})
	assert.ErrorContains(t, err, "unsupported operator")
}

func TestMapClip(t *testing.T) {
	r := NewRegistry()
	feeds := []VarDesc{{Name: "x", DType: tensor.Float32, Shape: tensor.Shape{2, 3}}}
	ops := []*OpDesc{{
		Type:    "clip",
		Inputs:  map[string][]string{"X": {"x"}},
		Outputs: map[string][]string{"Out": {"out"}},
		Attrs:   map[string]any{"min": -0.2, "max": 0.2},
	}}

	prog, names, err := r.MapProgram("clip", feeds, ops)
	require.NoError(t, err)
	require.Len(t, prog.Instructions, 1)

	instr := prog.Instructions[0]
	assert.Equal(t, frontend.OpClip, instr.Op)
	assert.Equal(t, -0.2, instr.AttrFloat("min", 0))
	assert.Equal(t, 0.2, instr.AttrFloat("max", 0))
	assert.False(t, instr.AttrBool("has_min_tensor", true))
	assert.False(t, instr.AttrBool("has_max_tensor", true))

	outName, ok := names["out"]
	require.True(t, ok)
	v, ok := prog.Var(outName)
	require.True(t, ok)
	assert.True(t, v.Shape.Equal(tensor.Shape{2, 3}))
}

func TestMapClipMaxTensorOverridesAttr(t *testing.T) {
	r := NewRegistry()
	feeds := []VarDesc{
		{Name: "x", DType: tensor.Float32, Shape: tensor.Shape{2, 3, 4}},
		{Name: "max_input", DType: tensor.Float32, Shape: tensor.Shape{1}},
	}
	ops := []*OpDesc{{
		Type:    "clip",
		Inputs:  map[string][]string{"X": {"x"}, "Max": {"max_input"}},
		Outputs: map[string][]string{"Out": {"out"}},
		Attrs:   map[string]any{"min": 0.0, "max": 1.0},
	}}

	prog, _, err := r.MapProgram("clip", feeds, ops)
	require.NoError(t, err)

	instr := prog.Instructions[0]
	assert.True(t, instr.AttrBool("has_max_tensor", false))
	assert.False(t, instr.AttrBool("has_min_tensor", true))
	assert.Contains(t, instr.Inputs, "max_input")
}

func TestMapClipMissingInput(t *testing.T) {
	r := NewRegistry()
	ops := []*OpDesc{{
		Type:    "clip",
		Inputs:  map[string][]string{"X": {"x"}},
		Outputs: map[string][]string{"Out": {"out"}},
	}}
	_, _, err := r.MapProgram("clip", nil, ops)
	assert.ErrorContains(t, err, "not defined")
}

func TestMapTriangularSolve(t *testing.T) {
	r := NewRegistry()
	feeds := []VarDesc{
		{Name: "a", DType: tensor.Float32, Shape: tensor.Shape{1, 3, 3}},
		{Name: "b", DType: tensor.Float32, Shape: tensor.Shape{1, 3, 1}},
	}
	ops := []*OpDesc{{
		Type:    "triangular_solve",
		Inputs:  map[string][]string{"X": {"a"}, "Y": {"b"}},
		Outputs: map[string][]string{"Out": {"out"}},
		Attrs:   map[string]any{"upper": false, "transpose_a": true},
	}}

	prog, names, err := r.MapProgram("solve", feeds, ops)
	require.NoError(t, err)
	require.Len(t, prog.Instructions, 1)

	instr := prog.Instructions[0]
	assert.Equal(t, frontend.OpTriangularSolve, instr.Op)
	assert.True(t, instr.AttrBool("left_side", false), "default must be left side")
	assert.False(t, instr.AttrBool("upper", true))
	assert.True(t, instr.AttrBool("transpose_a", false))
	assert.False(t, instr.AttrBool("unit_diagonal", true))

	v, ok := prog.Var(names["out"])
	require.True(t, ok)
	assert.True(t, v.Shape.Equal(tensor.Shape{1, 3, 1}))
}

func TestMapChainedOps(t *testing.T) {
	r := NewRegistry()
	feeds := []VarDesc{
		{Name: "a", DType: tensor.Float32, Shape: tensor.Shape{3, 3}},
		{Name: "b", DType: tensor.Float32, Shape: tensor.Shape{3, 1}},
	}
	ops := []*OpDesc{
		{
			Type:    "triangular_solve",
			Inputs:  map[string][]string{"X": {"a"}, "Y": {"b"}},
			Outputs: map[string][]string{"Out": {"solved"}},
		},
		{
			Type:    "clip",
			Inputs:  map[string][]string{"X": {"solved"}},
			Outputs: map[string][]string{"Out": {"out"}},
			Attrs:   map[string]any{"min": -1.0, "max": 1.0},
		},
	}

	prog, names, err := r.MapProgram("chain", feeds, ops)
	require.NoError(t, err)
	assert.Len(t, prog.Instructions, 2)
	assert.NotEmpty(t, names["out"])
}

func TestOpDescSlotValidation(t *testing.T) {
	op := &OpDesc{
		Type:   "clip",
		Inputs: map[string][]string{"X": {"a", "b"}},
	}
	_, err := op.Input("X")
	assert.ErrorContains(t, err, "want 1")

	_, err = op.Input("Y")
	assert.Error(t, err)

	name, ok := op.OptionalInput("Missing")
	assert.False(t, ok)
	assert.Empty(t, name)
}
