// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff

import (
	"math"
	"testing"

	"github.com/zzk0/CINN/internal/backend/cpu"
	"github.com/zzk0/CINN/internal/tensor"
)

func fromFloat64(t *testing.T, data []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r := tensor.MustNewRaw(shape, tensor.Float64, tensor.CPU)
	copy(r.AsFloat64(), data)
	return r
}

func checkFloat64(t *testing.T, got *tensor.RawTensor, want []float64, eps float64) {
	t.Helper()
	data := got.AsFloat64()
	if len(data) != len(want) {
		t.Fatalf("length = %d, want %d", len(data), len(want))
	}
	for i := range want {
		if math.Abs(data[i]-want[i]) > eps {
			t.Errorf("element %d = %v, want %v", i, data[i], want[i])
		}
	}
}

func sumAll(r *tensor.RawTensor) float64 {
	var s float64
	for _, v := range r.AsFloat64() {
		s += v
	}
	return s
}

func TestAddBackwardBroadcast(t *testing.T) {
	b := New(cpu.New())
	x := fromFloat64(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := fromFloat64(t, []float64{10}, tensor.Shape{1})

	out := b.Add(x, y)
	grads := b.Backward(out)

	checkFloat64(t, grads[x], []float64{1, 1, 1, 1}, 0)
	checkFloat64(t, grads[y], []float64{4}, 0)
}

func TestMulBackward(t *testing.T) {
	b := New(cpu.New())
	x := fromFloat64(t, []float64{2, 3}, tensor.Shape{2})
	y := fromFloat64(t, []float64{5, 7}, tensor.Shape{2})

	out := b.Mul(x, y)
	grads := b.Backward(out)

	checkFloat64(t, grads[x], []float64{5, 7}, 0)
	checkFloat64(t, grads[y], []float64{2, 3}, 0)
}

func TestDivBackward(t *testing.T) {
	b := New(cpu.New())
	x := fromFloat64(t, []float64{6}, tensor.Shape{1})
	y := fromFloat64(t, []float64{2}, tensor.Shape{1})

	out := b.Div(x, y)
	grads := b.Backward(out)

	checkFloat64(t, grads[x], []float64{0.5}, 1e-12)
	checkFloat64(t, grads[y], []float64{-1.5}, 1e-12)
}

func TestClipBackwardMask(t *testing.T) {
	b := New(cpu.New())
	x := fromFloat64(t, []float64{-2, -0.1, 0.1, 2}, tensor.Shape{4})

	out := b.Clip(x, -0.2, 0.2)
	grads := b.Backward(out)

	// gradient passes only where the input was inside the bounds
	checkFloat64(t, grads[x], []float64{0, 1, 1, 0}, 0)
}

func TestMinimumBackwardTies(t *testing.T) {
	b := New(cpu.New())
	x := fromFloat64(t, []float64{1, 5, 3}, tensor.Shape{3})
	y := fromFloat64(t, []float64{2, 2, 3}, tensor.Shape{3})

	out := b.Minimum(x, y)
	grads := b.Backward(out)

	// ties route to the first operand
	checkFloat64(t, grads[x], []float64{1, 0, 1}, 0)
	checkFloat64(t, grads[y], []float64{0, 1, 0}, 0)
}

func TestMaximumBackwardTies(t *testing.T) {
	b := New(cpu.New())
	x := fromFloat64(t, []float64{1, 5, 3}, tensor.Shape{3})
	y := fromFloat64(t, []float64{2, 2, 3}, tensor.Shape{3})

	out := b.Maximum(x, y)
	grads := b.Backward(out)

	checkFloat64(t, grads[x], []float64{0, 1, 1}, 0)
	checkFloat64(t, grads[y], []float64{1, 0, 0}, 0)
}

func TestBroadcastToBackward(t *testing.T) {
	b := New(cpu.New())
	x := fromFloat64(t, []float64{1, 2}, tensor.Shape{2})

	out := b.BroadcastTo(x, tensor.Shape{3, 2})
	grads := b.Backward(out)

	checkFloat64(t, grads[x], []float64{3, 3}, 0)
}

func TestTransposeBackward(t *testing.T) {
	b := New(cpu.New())
	x := fromFloat64(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := b.Transpose(x, 1, 0)
	grads := b.Backward(out)

	if !grads[x].Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("grad shape = %v, want [2 3]", grads[x].Shape())
	}
	checkFloat64(t, grads[x], []float64{1, 1, 1, 1, 1, 1}, 0)
}

func TestMatMulBackward(t *testing.T) {
	b := New(cpu.New())
	x := fromFloat64(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := fromFloat64(t, []float64{5, 6, 7, 8}, tensor.Shape{2, 2})

	out := b.MatMul(x, y)
	grads := b.Backward(out)

	// d/dx sum(x@y) = ones @ yᵀ, d/dy = xᵀ @ ones
	checkFloat64(t, grads[x], []float64{11, 15, 11, 15}, 1e-12)
	checkFloat64(t, grads[y], []float64{4, 4, 6, 6}, 1e-12)
}

func TestStopRecording(t *testing.T) {
	b := New(cpu.New())
	x := fromFloat64(t, []float64{1, 2}, tensor.Shape{2})
	y := fromFloat64(t, []float64{3, 4}, tensor.Shape{2})

	b.Tape().StopRecording()
	out := b.Add(x, y)
	grads := b.Backward(out)

	if _, ok := grads[x]; ok {
		t.Error("no gradient should be recorded after StopRecording")
	}
}

// numericalGrad perturbs data[i] and re-runs f, returning the central
// difference of the scalar result.
func numericalGrad(f func() float64, data []float64, i int) float64 {
	const eps = 1e-6
	old := data[i]
	data[i] = old + eps
	fp := f()
	data[i] = old - eps
	fm := f()
	data[i] = old
	return (fp - fm) / (2 * eps)
}

func checkSolveGradients(t *testing.T, aData, bData []float64, aShape, bShape tensor.Shape, leftSide, upper, transposeA, unitDiagonal bool) {
	t.Helper()
	plain := cpu.New()
	a := fromFloat64(t, aData, aShape)
	rhs := fromFloat64(t, bData, bShape)
	f := func() float64 {
		return sumAll(plain.TriangularSolve(a, rhs, leftSide, upper, transposeA, unitDiagonal))
	}

	b := New(plain)
	out := b.TriangularSolve(a, rhs, leftSide, upper, transposeA, unitDiagonal)
	grads := b.Backward(out)

	gradA := grads[a].AsFloat64()
	for i := range aData {
		want := numericalGrad(f, a.AsFloat64(), i)
		if math.Abs(gradA[i]-want) > 1e-5 {
			t.Errorf("gradA[%d] = %v, numerical %v", i, gradA[i], want)
		}
	}
	gradB := grads[rhs].AsFloat64()
	for i := range bData {
		want := numericalGrad(f, rhs.AsFloat64(), i)
		if math.Abs(gradB[i]-want) > 1e-5 {
			t.Errorf("gradB[%d] = %v, numerical %v", i, gradB[i], want)
		}
	}
}

func TestTriangularSolveBackwardNumerical(t *testing.T) {
	a := []float64{2, 1, 0, 3}
	b := []float64{1, 2}

	t.Run("left_upper", func(t *testing.T) {
		checkSolveGradients(t, a, b, tensor.Shape{2, 2}, tensor.Shape{2, 1}, true, true, false, false)
	})
	t.Run("left_upper_transposed", func(t *testing.T) {
		checkSolveGradients(t, a, b, tensor.Shape{2, 2}, tensor.Shape{2, 1}, true, true, true, false)
	})
	t.Run("left_lower", func(t *testing.T) {
		checkSolveGradients(t, []float64{2, 0, 1, 3}, b, tensor.Shape{2, 2}, tensor.Shape{2, 1}, true, false, false, false)
	})
	t.Run("right_upper", func(t *testing.T) {
		checkSolveGradients(t, a, b, tensor.Shape{2, 2}, tensor.Shape{1, 2}, false, true, false, false)
	})
	t.Run("unit_diagonal", func(t *testing.T) {
		checkSolveGradients(t, a, b, tensor.Shape{2, 2}, tensor.Shape{2, 1}, true, true, false, true)
	})
	t.Run("batched_broadcast", func(t *testing.T) {
		batchedB := []float64{1, 2, 3, 4}
		checkSolveGradients(t, a, batchedB, tensor.Shape{2, 2}, tensor.Shape{2, 2, 1}, true, true, false, false)
	})
}
