// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"math"
	"testing"

	"github.com/zzk0/CINN/internal/tensor"
)

func fromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r := tensor.MustNewRaw(shape, tensor.Float32, tensor.CPU)
	copy(r.AsFloat32(), data)
	return r
}

func fromFloat64(t *testing.T, data []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r := tensor.MustNewRaw(shape, tensor.Float64, tensor.CPU)
	copy(r.AsFloat64(), data)
	return r
}

func fromInt32(t *testing.T, data []int32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r := tensor.MustNewRaw(shape, tensor.Int32, tensor.CPU)
	copy(r.AsInt32(), data)
	return r
}

func checkFloat32(t *testing.T, got *tensor.RawTensor, want []float32, eps float32) {
	t.Helper()
	data := got.AsFloat32()
	if len(data) != len(want) {
		t.Fatalf("length = %d, want %d", len(data), len(want))
	}
	for i := range want {
		d := data[i] - want[i]
		if d < -eps || d > eps {
			t.Errorf("element %d = %v, want %v", i, data[i], want[i])
		}
	}
}

func TestAdd(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})
	checkFloat32(t, be.Add(a, b), []float32{11, 22, 33, 44}, 0)
}

func TestBinaryBroadcast(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromFloat32(t, []float32{10, 20, 30}, tensor.Shape{3})
	out := be.Mul(a, b)
	if !out.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("shape = %v, want [2 3]", out.Shape())
	}
	checkFloat32(t, out, []float32{10, 40, 90, 40, 100, 180}, 0)
}

func TestBinaryScalarBroadcast(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	s := fromFloat32(t, []float32{2}, tensor.Shape{1})
	checkFloat32(t, be.Sub(a, s), []float32{-1, 0, 1, 2}, 0)
}

func TestMinimumMaximum(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{1, 5, -2, 0}, tensor.Shape{4})
	b := fromFloat32(t, []float32{3, 3, 3, 3}, tensor.Shape{4})
	checkFloat32(t, be.Minimum(a, b), []float32{1, 3, -2, 0}, 0)
	checkFloat32(t, be.Maximum(a, b), []float32{3, 5, 3, 3}, 0)
}

func TestDTypeMismatchPanics(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{1}, tensor.Shape{1})
	b := fromInt32(t, []int32{1}, tensor.Shape{1})
	defer func() {
		if recover() == nil {
			t.Error("Add with mixed dtypes should panic")
		}
	}()
	be.Add(a, b)
}

func TestNeg(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{1, -2, 0}, tensor.Shape{3})
	checkFloat32(t, be.Neg(a), []float32{-1, 2, 0}, 0)
}

func TestClip(t *testing.T) {
	be := New()
	x := fromFloat32(t, []float32{-1, -0.1, 0.1, 1}, tensor.Shape{4})
	checkFloat32(t, be.Clip(x, -0.2, 0.2), []float32{-0.2, -0.1, 0.1, 0.2}, 0)
}

func TestClipInt32(t *testing.T) {
	be := New()
	x := fromInt32(t, []int32{0, 3, 5, 9}, tensor.Shape{4})
	out := be.Clip(x, 3, 7)
	want := []int32{3, 3, 5, 7}
	for i, v := range out.AsInt32() {
		if v != want[i] {
			t.Errorf("element %d = %d, want %d", i, v, want[i])
		}
	}
}

func TestClipOpenBounds(t *testing.T) {
	be := New()
	x := fromFloat32(t, []float32{-5, 0, 5}, tensor.Shape{3})
	checkFloat32(t, be.Clip(x, math.Inf(-1), 1), []float32{-5, 0, 1}, 0)
	checkFloat32(t, be.Clip(x, -1, math.Inf(1)), []float32{-1, 0, 5}, 0)
}

func TestClipInvertedBoundsPanics(t *testing.T) {
	be := New()
	x := fromFloat32(t, []float32{0}, tensor.Shape{1})
	defer func() {
		if recover() == nil {
			t.Error("Clip with min > max should panic")
		}
	}()
	be.Clip(x, 1, -1)
}

func TestWhere(t *testing.T) {
	be := New()
	cond := tensor.MustNewRaw(tensor.Shape{3}, tensor.Bool, tensor.CPU)
	copy(cond.AsBool(), []bool{true, false, true})
	x := fromFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
	y := fromFloat32(t, []float32{10, 20, 30}, tensor.Shape{3})
	checkFloat32(t, be.Where(cond, x, y), []float32{1, 20, 3}, 0)
}

func TestLowerEqual(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{1, 3, 2}, tensor.Shape{3})
	b := fromFloat32(t, []float32{2, 2, 2}, tensor.Shape{3})
	out := be.LowerEqual(a, b)
	want := []bool{true, false, true}
	for i, v := range out.AsBool() {
		if v != want[i] {
			t.Errorf("element %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestCast(t *testing.T) {
	be := New()
	x := fromFloat32(t, []float32{1.7, -2.3}, tensor.Shape{2})
	out := be.Cast(x, tensor.Int32)
	got := out.AsInt32()
	if got[0] != 1 || got[1] != -2 {
		t.Errorf("Cast to int32 = %v, want [1 -2]", got)
	}
}
