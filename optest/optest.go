// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optest checks that an operator computes the same outputs and
// gradients along two independent routes: an eager reference built
// directly on composite backend kernels, and a compiled program lowered
// through the pass pipeline and run by the executor. Both routes record
// on their own gradient tapes, so the backward computations differ as
// much as the forward ones.
package optest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zzk0/CINN/internal/autodiff"
	"github.com/zzk0/CINN/internal/backend/cpu"
	"github.com/zzk0/CINN/internal/executor"
	"github.com/zzk0/CINN/internal/frontend"
	"github.com/zzk0/CINN/internal/frontend/passes"
	"github.com/zzk0/CINN/internal/tensor"
)

// InputSpec declares one test input. Data, when set, gives the exact
// values; otherwise values are drawn uniformly from [Low, High).
type InputSpec struct {
	Name  string
	Shape tensor.Shape
	DType tensor.DataType
	Low   float64
	High  float64
	Data  []float64
}

// Case is one operator equivalence case.
type Case struct {
	Name   string
	Seed   int64
	Inputs []InputSpec

	// BuildReference computes the outputs eagerly on the given backend.
	BuildReference func(b *autodiff.Backend[*cpu.Backend], feeds map[string]*tensor.RawTensor) []*tensor.RawTensor

	// BuildProgram emits the same computation as builder instructions.
	// The inputs map is keyed by InputSpec names.
	BuildProgram func(nb *frontend.NetBuilder, inputs map[string]*frontend.Variable) ([]*frontend.Variable, error)

	// ExpectedOutputs, when set, are checked against both routes.
	ExpectedOutputs []*tensor.RawTensor

	// GradInputs names the inputs whose gradients are compared. Leave
	// empty to skip the backward check, e.g. for integer dtypes.
	GradInputs []string

	// MaxRelativeError overrides the dtype-derived relative tolerance.
	MaxRelativeError float64
}

// CheckOutputsAndGrads runs both routes of the case and requires their
// outputs, and the gradients of every output w.r.t. GradInputs, to agree
// within dtype tolerance.
func CheckOutputsAndGrads(t *testing.T, c Case) {
	t.Helper()

	feeds := buildFeeds(t, c.Inputs, c.Seed)

	refBackend := autodiff.New(cpu.New())
	refOuts := c.BuildReference(refBackend, feeds)
	require.NotEmpty(t, refOuts, "reference produced no outputs")

	nb := frontend.NewNetBuilder(c.Name)
	inputVars := make(map[string]*frontend.Variable, len(c.Inputs))
	for _, spec := range c.Inputs {
		v, err := nb.CreateInput(spec.DType, spec.Shape, spec.Name)
		require.NoError(t, err)
		inputVars[spec.Name] = v
	}
	outVars, err := c.BuildProgram(nb, inputVars)
	require.NoError(t, err)
	require.Len(t, outVars, len(refOuts), "route output counts differ")

	prog, err := nb.Build()
	require.NoError(t, err)
	fetches := make([]string, len(outVars))
	for i, v := range outVars {
		fetches[i] = v.Name
	}
	require.NoError(t, passes.Run(prog, fetches, passes.Default()...))

	compBackend := autodiff.New(cpu.New())
	compOuts, err := executor.New(compBackend).Run(prog, feeds, fetches)
	require.NoError(t, err)

	for i := range refOuts {
		rtol, atol := c.tolerance(refOuts[i].DType())
		requireAllClose(t, refOuts[i], compOuts[i], rtol, atol, "output %d", i)
		if i < len(c.ExpectedOutputs) && c.ExpectedOutputs[i] != nil {
			requireAllClose(t, c.ExpectedOutputs[i], refOuts[i], rtol, atol, "reference output %d vs expected", i)
			requireAllClose(t, c.ExpectedOutputs[i], compOuts[i], rtol, atol, "compiled output %d vs expected", i)
		}
	}

	if len(c.GradInputs) == 0 {
		return
	}
	for i := range refOuts {
		refGrads := refBackend.Backward(refOuts[i])
		compGrads := compBackend.Backward(compOuts[i])
		for _, name := range c.GradInputs {
			feed := feeds[name]
			rg, rok := refGrads[feed]
			cg, cok := compGrads[feed]
			require.True(t, rok, "output %d: reference has no gradient for %s", i, name)
			require.True(t, cok, "output %d: compiled route has no gradient for %s", i, name)
			rtol, atol := c.tolerance(rg.DType())
			requireAllClose(t, rg, cg, rtol, atol, "output %d: gradient of %s", i, name)
		}
	}
}

func buildFeeds(t *testing.T, inputs []InputSpec, seed int64) map[string]*tensor.RawTensor {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	feeds := make(map[string]*tensor.RawTensor, len(inputs))
	for _, spec := range inputs {
		if spec.Data != nil {
			r, err := tensor.FromFloat64s(spec.Data, spec.Shape, spec.DType)
			require.NoError(t, err)
			feeds[spec.Name] = r
			continue
		}
		low, high := spec.Low, spec.High
		if low == 0 && high == 0 {
			low, high = -1, 1
		}
		feeds[spec.Name] = tensor.RandomUniform(spec.Shape, spec.DType, low, high, rng)
	}
	return feeds
}

// tolerances per dtype; relative first, absolute second.
func (c Case) tolerance(dtype tensor.DataType) (float64, float64) {
	var rtol, atol float64
	switch dtype {
	case tensor.Float16:
		rtol, atol = 1e-2, 1e-3
	case tensor.Float32:
		rtol, atol = 1e-5, 1e-6
	case tensor.Float64:
		rtol, atol = 1e-12, 1e-12
	default:
		rtol, atol = 0, 0
	}
	if c.MaxRelativeError > 0 && c.MaxRelativeError > rtol {
		rtol = c.MaxRelativeError
	}
	return rtol, atol
}
