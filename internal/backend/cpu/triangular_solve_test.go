// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"math"
	"testing"

	"github.com/zzk0/CINN/internal/tensor"
)

func TestTriangularSolveUpper(t *testing.T) {
	be := New()
	// A x = b with A upper triangular
	a := fromFloat32(t, []float32{
		2, 1, 1,
		0, 1, -1,
		0, 0, 4,
	}, tensor.Shape{3, 3})
	b := fromFloat32(t, []float32{5, 1, 8}, tensor.Shape{3, 1})
	out := be.TriangularSolve(a, b, true, true, false, false)
	// back substitution: x2 = 2, x1 = 3, x0 = 0
	checkFloat32(t, out, []float32{0, 3, 2}, 1e-6)
}

func TestTriangularSolveLower(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{
		2, 0, 0,
		1, 1, 0,
		1, -1, 4,
	}, tensor.Shape{3, 3})
	b := fromFloat32(t, []float32{4, 5, 9}, tensor.Shape{3, 1})
	out := be.TriangularSolve(a, b, true, false, false, false)
	// forward substitution: x0 = 2, x1 = 3, x2 = 2.5
	checkFloat32(t, out, []float32{2, 3, 2.5}, 1e-6)
}

func TestTriangularSolveTransposed(t *testing.T) {
	be := New()
	// Solving Aᵀ x = b with A upper equals solving a lower system.
	a := fromFloat32(t, []float32{
		2, 1, 1,
		0, 1, -1,
		0, 0, 4,
	}, tensor.Shape{3, 3})
	b := fromFloat32(t, []float32{4, 5, 9}, tensor.Shape{3, 1})
	out := be.TriangularSolve(a, b, true, true, true, false)
	// Aᵀ rows: [2 0 0], [1 1 0], [1 -1 4] so same as the lower test
	checkFloat32(t, out, []float32{2, 3, 2.5}, 1e-6)
}

func TestTriangularSolveUnitDiagonal(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{
		9, 1, 0, // diagonal values must be ignored
		0, 9, 2,
		0, 0, 9,
	}, tensor.Shape{3, 3})
	b := fromFloat32(t, []float32{3, 5, 4}, tensor.Shape{3, 1})
	out := be.TriangularSolve(a, b, true, true, false, true)
	// x2 = 4, x1 = 5-2*4 = -3, x0 = 3-(-3) = 6
	checkFloat32(t, out, []float32{6, -3, 4}, 1e-6)
}

func TestTriangularSolveRightSide(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{
		1, 1, 1,
		0, 2, 1,
		0, 0, -1,
	}, tensor.Shape{1, 3, 3})
	b := fromFloat32(t, []float32{0, -9, 5}, tensor.Shape{1, 1, 3})
	out := be.TriangularSolve(a, b, false, true, false, false)
	checkFloat32(t, out, []float32{0, -4.5, -9.5}, 1e-6)
}

func TestTriangularSolveMultipleRHS(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{
		1, 1,
		0, 2,
	}, tensor.Shape{2, 2})
	b := fromFloat32(t, []float32{
		3, 5,
		2, 4,
	}, tensor.Shape{2, 2})
	out := be.TriangularSolve(a, b, true, true, false, false)
	// column-wise back substitution
	checkFloat32(t, out, []float32{2, 3, 1, 2}, 1e-6)
}

func TestTriangularSolveBatchBroadcast(t *testing.T) {
	be := New()
	// one matrix, two right-hand-side batches
	a := fromFloat32(t, []float32{
		1, 0,
		0, 2,
	}, tensor.Shape{1, 2, 2})
	b := fromFloat32(t, []float32{
		1, 2,
		3, 4,
	}, tensor.Shape{2, 2, 1})
	out := be.TriangularSolve(a, b, true, true, false, false)
	if !out.Shape().Equal(tensor.Shape{2, 2, 1}) {
		t.Fatalf("shape = %v, want [2 2 1]", out.Shape())
	}
	checkFloat32(t, out, []float32{1, 1, 3, 2}, 1e-6)
}

func TestTriangularSolveSingular(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{
		1, 1,
		0, 0,
	}, tensor.Shape{2, 2})
	b := fromFloat32(t, []float32{1, 2}, tensor.Shape{2, 1})
	out := be.TriangularSolve(a, b, true, true, false, false)
	data := out.AsFloat32()
	if !math.IsInf(float64(data[1]), 0) && !math.IsNaN(float64(data[1])) {
		t.Errorf("singular diagonal should give Inf or NaN, got %v", data[1])
	}
}

func TestTriangularSolveFloat64(t *testing.T) {
	be := New()
	a := fromFloat64(t, []float64{
		4, 2,
		0, 2,
	}, tensor.Shape{2, 2})
	b := fromFloat64(t, []float64{8, 4}, tensor.Shape{2, 1})
	out := be.TriangularSolve(a, b, true, true, false, false)
	want := []float64{1, 2}
	for i, v := range out.AsFloat64() {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("element %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestTriangularSolveNonSquarePanics(t *testing.T) {
	be := New()
	a := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromFloat32(t, []float32{1, 2}, tensor.Shape{2, 1})
	defer func() {
		if recover() == nil {
			t.Error("TriangularSolve with non-square A should panic")
		}
	}()
	be.TriangularSolve(a, b, true, true, false, false)
}
