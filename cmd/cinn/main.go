// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package main provides the CINN graph compiler CLI.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"github.com/zzk0/CINN/autodiff"
	"github.com/zzk0/CINN/backend/cpu"
	"github.com/zzk0/CINN/executor"
	"github.com/zzk0/CINN/frontend"
	"github.com/zzk0/CINN/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("CINN graph compiler %s\n", version)
			return
		case "compare":
			if err := runCompare(os.Args[2:]); err != nil {
				fmt.Fprintln(os.Stderr, "compare:", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("CINN graph compiler")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  compare    Run an operator on the eager and compiled routes and diff the results")
}

// runCompare builds one operator program, executes it both eagerly and
// through the pass pipeline, and reports the largest divergence.
func runCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	op := fs.String("op", "clip", "operator to compare: clip or triangular_solve")
	shapeArg := fs.String("shape", "2,3,4", "input shape, comma separated")
	dtypeArg := fs.String("dtype", "float32", "input data type")
	seed := fs.Int64("seed", 42, "random seed for input data")
	klog.InitFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	shape, err := parseShape(*shapeArg)
	if err != nil {
		return err
	}
	dtype, err := tensor.ParseDataType(*dtypeArg)
	if err != nil {
		return err
	}

	switch *op {
	case "clip":
		return compareClip(shape, dtype, *seed)
	case "triangular_solve":
		return compareTriangularSolve(shape, dtype, *seed)
	default:
		return fmt.Errorf("unknown operator %q", *op)
	}
}

func parseShape(s string) (tensor.Shape, error) {
	parts := strings.Split(s, ",")
	shape := make(tensor.Shape, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid shape %q", s)
		}
		shape = append(shape, d)
	}
	return shape, nil
}

func compareClip(shape tensor.Shape, dtype tensor.DataType, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	x := tensor.RandomUniform(shape, dtype, -1, 1, rng)

	eager := autodiff.New(cpu.New())
	want := eager.Clip(x, -0.2, 0.2)

	builder := frontend.NewNetBuilder("clip_compare")
	in, err := builder.CreateInput(dtype, shape, "x")
	if err != nil {
		return err
	}
	lo, hi := -0.2, 0.2
	out, err := builder.Clip(in, &lo, &hi)
	if err != nil {
		return err
	}
	got, err := runProgram(builder, map[string]*tensor.RawTensor{"x": x}, out.Name)
	if err != nil {
		return err
	}

	report("clip", shape, dtype, maxAbsDiff(want, got))
	return nil
}

func compareTriangularSolve(shape tensor.Shape, dtype tensor.DataType, seed int64) error {
	if shape.Rank() < 2 || shape[shape.Rank()-1] != shape[shape.Rank()-2] {
		return fmt.Errorf("triangular_solve needs a square matrix shape, got %v", shape)
	}
	rhsShape := shape.Clone()
	rhsShape[rhsShape.Rank()-1] = 1

	rng := rand.New(rand.NewSource(seed))
	a := tensor.RandomUniform(shape, dtype, 0.5, 1.5, rng)
	rhs := tensor.RandomUniform(rhsShape, dtype, 0, 1, rng)

	eager := autodiff.New(cpu.New())
	want := eager.TriangularSolve(a, rhs, true, true, false, false)

	builder := frontend.NewNetBuilder("triangular_solve_compare")
	aVar, err := builder.CreateInput(dtype, shape, "a")
	if err != nil {
		return err
	}
	bVar, err := builder.CreateInput(dtype, rhsShape, "b")
	if err != nil {
		return err
	}
	out, err := builder.TriangularSolve(aVar, bVar, true, true, false, false)
	if err != nil {
		return err
	}
	feeds := map[string]*tensor.RawTensor{"a": a, "b": rhs}
	got, err := runProgram(builder, feeds, out.Name)
	if err != nil {
		return err
	}

	report("triangular_solve", shape, dtype, maxAbsDiff(want, got))
	return nil
}

func runProgram(builder *frontend.NetBuilder, feeds map[string]*tensor.RawTensor, fetch string) (*tensor.RawTensor, error) {
	program, err := builder.Build()
	if err != nil {
		return nil, err
	}
	if err := frontend.Optimize(program, []string{fetch}); err != nil {
		return nil, err
	}
	results, err := executor.New(autodiff.New(cpu.New())).Run(program, feeds, []string{fetch})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func maxAbsDiff(want, got *tensor.RawTensor) float64 {
	var maxDiff float64
	switch want.DType() {
	case tensor.Float64:
		w, g := want.AsFloat64(), got.AsFloat64()
		for i := range w {
			maxDiff = math.Max(maxDiff, math.Abs(w[i]-g[i]))
		}
	case tensor.Float32:
		w, g := want.AsFloat32(), got.AsFloat32()
		for i := range w {
			maxDiff = math.Max(maxDiff, math.Abs(float64(w[i])-float64(g[i])))
		}
	case tensor.Int32:
		w, g := want.AsInt32(), got.AsInt32()
		for i := range w {
			maxDiff = math.Max(maxDiff, math.Abs(float64(w[i])-float64(g[i])))
		}
	default:
		panic("maxAbsDiff: unsupported dtype " + want.DType().String())
	}
	return maxDiff
}

func report(op string, shape tensor.Shape, dtype tensor.DataType, maxDiff float64) {
	fmt.Printf("op=%s shape=%v dtype=%s\n", op, shape, dtype)
	fmt.Printf("max abs diff between eager and compiled: %g\n", maxDiff)
}
