// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optest

import (
	"fmt"
	"math"
	"testing"

	"github.com/zzk0/CINN/internal/autodiff"
	"github.com/zzk0/CINN/internal/backend/cpu"
	"github.com/zzk0/CINN/internal/opmapper"
	"github.com/zzk0/CINN/internal/tensor"
)

// clipDesc builds a clip descriptor over input x with the given slots
// and attributes.
func clipDesc(inputs map[string][]string, attrs map[string]any) []*opmapper.OpDesc {
	return []*opmapper.OpDesc{{
		Type:    "clip",
		Inputs:  inputs,
		Outputs: map[string][]string{"Out": {"out"}},
		Attrs:   attrs,
	}}
}

// clipRef clips eagerly against scalar bounds read at run time.
func clipRef(lo, hi float64) func(b *autodiff.Backend[*cpu.Backend], feeds map[string]*tensor.RawTensor) []*tensor.RawTensor {
	return func(b *autodiff.Backend[*cpu.Backend], feeds map[string]*tensor.RawTensor) []*tensor.RawTensor {
		return []*tensor.RawTensor{b.Clip(feeds["x"], lo, hi)}
	}
}

// clipRefBound reads one bound from a feed tensor and the other from the
// scalar attribute, matching how the operator resolves mixed bounds.
func clipRefBound(boundInput string, boundIsMax bool, other float64) func(b *autodiff.Backend[*cpu.Backend], feeds map[string]*tensor.RawTensor) []*tensor.RawTensor {
	return func(b *autodiff.Backend[*cpu.Backend], feeds map[string]*tensor.RawTensor) []*tensor.RawTensor {
		bound := toFloat64s(feeds[boundInput])[0]
		if boundIsMax {
			return []*tensor.RawTensor{b.Clip(feeds["x"], other, bound)}
		}
		return []*tensor.RawTensor{b.Clip(feeds["x"], bound, other)}
	}
}

func TestClipOp(t *testing.T) {
	shapes := []tensor.Shape{{2}, {2, 3}, {2, 3, 4}, {2, 3, 4, 5}}
	for _, shape := range shapes {
		t.Run(fmt.Sprintf("rank%d", shape.Rank()), func(t *testing.T) {
			CheckMapperOutputsAndGrads(t, MapperCase{
				Name: "clip",
				Seed: 42,
				Inputs: []InputSpec{
					{Name: "x", Shape: shape, DType: tensor.Float32, Low: -1, High: 1},
				},
				Ops:            clipDesc(map[string][]string{"X": {"x"}}, map[string]any{"min": -0.2, "max": 0.2}),
				Fetches:        []string{"out"},
				BuildReference: clipRef(-0.2, 0.2),
				GradInputs:     []string{"x"},
			})
		})
	}
}

func TestClipOpFloat64(t *testing.T) {
	CheckMapperOutputsAndGrads(t, MapperCase{
		Name: "clip_fp64",
		Seed: 43,
		Inputs: []InputSpec{
			{Name: "x", Shape: tensor.Shape{2, 3, 4}, DType: tensor.Float64, Low: -1, High: 1},
		},
		Ops:            clipDesc(map[string][]string{"X": {"x"}}, map[string]any{"min": -0.2, "max": 0.2}),
		Fetches:        []string{"out"},
		BuildReference: clipRef(-0.2, 0.2),
		GradInputs:     []string{"x"},
	})
}

func TestClipOpInt32(t *testing.T) {
	CheckMapperOutputsAndGrads(t, MapperCase{
		Name: "clip_int32",
		Seed: 44,
		Inputs: []InputSpec{
			{Name: "x", Shape: tensor.Shape{2, 3, 4}, DType: tensor.Int32, Low: 0, High: 10},
		},
		Ops:            clipDesc(map[string][]string{"X": {"x"}}, map[string]any{"min": 3.0, "max": 7.0}),
		Fetches:        []string{"out"},
		BuildReference: clipRef(3, 7),
	})
}

func TestClipOpMaxTensor(t *testing.T) {
	cases := []struct {
		name       string
		dtype      tensor.DataType
		xLow       float64
		xHigh      float64
		boundLow   float64
		boundHigh  float64
		checkGrads bool
	}{
		{"float32", tensor.Float32, -1, 2, 0.1, 1, true},
		{"float64", tensor.Float64, -1, 2, 0.1, 1, true},
		{"int32", tensor.Int32, 0, 10, 2, 8, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := MapperCase{
				Name: "clip_max_tensor",
				Seed: 45,
				Inputs: []InputSpec{
					{Name: "x", Shape: tensor.Shape{2, 3, 4}, DType: tc.dtype, Low: tc.xLow, High: tc.xHigh},
					{Name: "max_input", Shape: tensor.Shape{1}, DType: tc.dtype, Low: tc.boundLow, High: tc.boundHigh},
				},
				Ops: clipDesc(
					map[string][]string{"X": {"x"}, "Max": {"max_input"}},
					map[string]any{"min": 0.0, "max": 1.0},
				),
				Fetches:        []string{"out"},
				BuildReference: clipRefBound("max_input", true, 0),
			}
			if tc.checkGrads {
				c.GradInputs = []string{"x"}
			}
			CheckMapperOutputsAndGrads(t, c)
		})
	}
}

func TestClipOpMinTensor(t *testing.T) {
	cases := []struct {
		name       string
		dtype      tensor.DataType
		xLow       float64
		xHigh      float64
		boundLow   float64
		boundHigh  float64
		checkGrads bool
	}{
		{"float32", tensor.Float32, -1, 2, 0, 0.9, true},
		{"float64", tensor.Float64, -1, 2, 0, 0.9, true},
		{"int32", tensor.Int32, 0, 10, 0, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := MapperCase{
				Name: "clip_min_tensor",
				Seed: 46,
				Inputs: []InputSpec{
					{Name: "x", Shape: tensor.Shape{2, 3, 4}, DType: tc.dtype, Low: tc.xLow, High: tc.xHigh},
					{Name: "min_input", Shape: tensor.Shape{1}, DType: tc.dtype, Low: tc.boundLow, High: tc.boundHigh},
				},
				Ops: clipDesc(
					map[string][]string{"X": {"x"}, "Min": {"min_input"}},
					map[string]any{"min": 0.0, "max": 1.0},
				),
				Fetches:        []string{"out"},
				BuildReference: clipRefBound("min_input", false, 1),
			}
			if tc.checkGrads {
				c.GradInputs = []string{"x"}
			}
			CheckMapperOutputsAndGrads(t, c)
		})
	}
}

func TestClipOpFloat16(t *testing.T) {
	CheckMapperOutputsAndGrads(t, MapperCase{
		Name: "clip_fp16",
		Seed: 50,
		Inputs: []InputSpec{
			{Name: "x", Shape: tensor.Shape{2, 3, 4}, DType: tensor.Float16, Low: -1, High: 1},
		},
		Ops:            clipDesc(map[string][]string{"X": {"x"}}, map[string]any{"min": -0.2, "max": 0.2}),
		Fetches:        []string{"out"},
		BuildReference: clipRef(-0.2, 0.2),
		GradInputs:     []string{"x"},
	})
}

func TestClipOpNoMax(t *testing.T) {
	CheckMapperOutputsAndGrads(t, MapperCase{
		Name: "clip_no_max",
		Seed: 47,
		Inputs: []InputSpec{
			{Name: "x", Shape: tensor.Shape{2, 3, 4}, DType: tensor.Float32, Low: -1, High: 1},
		},
		Ops:            clipDesc(map[string][]string{"X": {"x"}}, map[string]any{"min": -0.2}),
		Fetches:        []string{"out"},
		BuildReference: clipRef(-0.2, math.Inf(1)),
		GradInputs:     []string{"x"},
	})
}

func TestClipOpNoMin(t *testing.T) {
	CheckMapperOutputsAndGrads(t, MapperCase{
		Name: "clip_no_min",
		Seed: 48,
		Inputs: []InputSpec{
			{Name: "x", Shape: tensor.Shape{2, 3, 4}, DType: tensor.Float32, Low: -1, High: 1},
		},
		Ops:            clipDesc(map[string][]string{"X": {"x"}}, map[string]any{"max": 0.2}),
		Fetches:        []string{"out"},
		BuildReference: clipRef(math.Inf(-1), 0.2),
		GradInputs:     []string{"x"},
	})
}

func TestClipOpNoBounds(t *testing.T) {
	CheckMapperOutputsAndGrads(t, MapperCase{
		Name: "clip_no_bounds",
		Seed: 49,
		Inputs: []InputSpec{
			{Name: "x", Shape: tensor.Shape{2, 3, 4}, DType: tensor.Float32, Low: -1, High: 1},
		},
		Ops:            clipDesc(map[string][]string{"X": {"x"}}, nil),
		Fetches:        []string{"out"},
		BuildReference: clipRef(math.Inf(-1), math.Inf(1)),
		GradInputs:     []string{"x"},
	})
}
