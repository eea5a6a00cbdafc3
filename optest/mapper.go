// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zzk0/CINN/internal/autodiff"
	"github.com/zzk0/CINN/internal/backend/cpu"
	"github.com/zzk0/CINN/internal/executor"
	"github.com/zzk0/CINN/internal/frontend/passes"
	"github.com/zzk0/CINN/internal/opmapper"
	"github.com/zzk0/CINN/internal/tensor"
)

// MapperCase drives the compiled route through operator descriptors and
// the mapper registry instead of direct builder calls, exercising the
// full descriptor-to-program translation.
type MapperCase struct {
	Name   string
	Seed   int64
	Inputs []InputSpec

	Ops     []*opmapper.OpDesc
	Fetches []string // descriptor variable names

	BuildReference func(b *autodiff.Backend[*cpu.Backend], feeds map[string]*tensor.RawTensor) []*tensor.RawTensor

	GradInputs       []string
	MaxRelativeError float64
}

// CheckMapperOutputsAndGrads maps the descriptors to a program, runs it,
// and requires agreement with the eager reference.
func CheckMapperOutputsAndGrads(t *testing.T, c MapperCase) {
	t.Helper()

	feeds := buildFeeds(t, c.Inputs, c.Seed)

	refBackend := autodiff.New(cpu.New())
	refOuts := c.BuildReference(refBackend, feeds)
	require.NotEmpty(t, refOuts, "reference produced no outputs")

	varDescs := make([]opmapper.VarDesc, len(c.Inputs))
	for i, spec := range c.Inputs {
		varDescs[i] = opmapper.VarDesc{Name: spec.Name, DType: spec.DType, Shape: spec.Shape}
	}
	prog, names, err := opmapper.NewRegistry().MapProgram(c.Name, varDescs, c.Ops)
	require.NoError(t, err)

	fetches := make([]string, len(c.Fetches))
	for i, descName := range c.Fetches {
		progName, ok := names[descName]
		require.True(t, ok, "descriptor variable %q was never mapped", descName)
		fetches[i] = progName
	}
	require.Len(t, fetches, len(refOuts), "route output counts differ")
	require.NoError(t, passes.Run(prog, fetches, passes.Default()...))

	compBackend := autodiff.New(cpu.New())
	compOuts, err := executor.New(compBackend).Run(prog, feeds, fetches)
	require.NoError(t, err)

	tolCase := Case{MaxRelativeError: c.MaxRelativeError}
	for i := range refOuts {
		rtol, atol := tolCase.tolerance(refOuts[i].DType())
		requireAllClose(t, refOuts[i], compOuts[i], rtol, atol, "output %d", i)
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
			rtol, atol := tolCase.tolerance(rg.DType())
			requireAllClose(t, rg, cg, rtol, atol, "output %d: gradient of %s", i, name)
		}
	}
}
