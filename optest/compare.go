// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optest

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zzk0/CINN/internal/tensor"
)

// requireAllClose asserts element-wise |want-got| <= atol + rtol*|want|.
// NaN matches NaN and infinities match when their signs agree, since both
// routes must degrade identically on singular or unbounded inputs.
func requireAllClose(t *testing.T, want, got *tensor.RawTensor, rtol, atol float64, msgFmt string, args ...any) {
	t.Helper()
	msg := fmt.Sprintf(msgFmt, args...)
	require.Equal(t, want.DType(), got.DType(), "%s: dtype", msg)
	require.True(t, want.Shape().Equal(got.Shape()), "%s: shape %v vs %v", msg, want.Shape(), got.Shape())

	wv := toFloat64s(want)
	gv := toFloat64s(got)
	for i := range wv {
		w, g := wv[i], gv[i]
		if math.IsNaN(w) && math.IsNaN(g) {
			continue
		}
		if math.IsInf(w, 1) && math.IsInf(g, 1) {
			continue
		}
		if math.IsInf(w, -1) && math.IsInf(g, -1) {
			continue
		}
		diff := math.Abs(w - g)
		require.LessOrEqualf(t, diff, atol+rtol*math.Abs(w),
			"%s: element %d: want %v, got %v", msg, i, w, g)
	}
}

// toFloat64s widens a tensor's elements for comparison.
func toFloat64s(r *tensor.RawTensor) []float64 {
	out := make([]float64, r.Shape().NumElements())
	switch r.DType() {
	case tensor.Float16:
		for i, v := range r.AsFloat16() {
			out[i] = float64(v.Float32())
		}
	case tensor.Float32:
		for i, v := range r.AsFloat32() {
			out[i] = float64(v)
		}
	case tensor.Float64:
		copy(out, r.AsFloat64())
	case tensor.Int32:
		for i, v := range r.AsInt32() {
			out[i] = float64(v)
		}
	case tensor.Int64:
		for i, v := range r.AsInt64() {
			out[i] = float64(v)
		}
	case tensor.Uint8:
		for i, v := range r.AsUint8() {
			out[i] = float64(v)
		}
	case tensor.Bool:
		for i, v := range r.AsBool() {
			if v {
				out[i] = 1
			}
		}
	default:
		panic(fmt.Sprintf("toFloat64s: unsupported dtype %s", r.DType()))
	}
	return out
}
