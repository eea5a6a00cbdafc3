// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package opmapper

// mapTriangularSolve lowers the triangular_solve operator. All four flags
// default to the framework's conventions: solve from the left with an
// upper triangle, no transpose, divide by the diagonal.
func mapTriangularSolve(ctx *Context, op *OpDesc) error {
	xName, err := op.Input("X")
	if err != nil {
		return err
	}
	yName, err := op.Input("Y")
	if err != nil {
		return err
	}
	outName, err := op.Output("Out")
	if err != nil {
		return err
	}
	a, err := ctx.Var(xName)
	if err != nil {
		return err
	}
	b, err := ctx.Var(yName)
	if err != nil {
		return err
	}

	out, err := ctx.Builder.TriangularSolve(a, b,
		op.AttrBool("left_side", true),
		op.AttrBool("upper", true),
		op.AttrBool("transpose_a", false),
		op.AttrBool("unit_diagonal", false))
	if err != nil {
		return err
	}
	ctx.SetVar(outName, out)
	return nil
}
