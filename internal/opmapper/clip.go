// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package opmapper

import (
	"math"

	"github.com/zzk0/CINN/internal/frontend"
)

// mapClip lowers the clip operator. Bounds come from the min and max
// attributes; the optional Min and Max tensor slots take precedence over
// the attribute on their side.
func mapClip(ctx *Context, op *OpDesc) error {
	xName, err := op.Input("X")
	if err != nil {
		return err
	}
	x, err := ctx.Var(xName)
	if err != nil {
		return err
	}
	outName, err := op.Output("Out")
	if err != nil {
		return err
	}

	var minVar, maxVar *frontend.Variable
	if name, ok := op.OptionalInput("Min"); ok {
		if minVar, err = ctx.Var(name); err != nil {
			return err
		}
	}
	if name, ok := op.OptionalInput("Max"); ok {
		if maxVar, err = ctx.Var(name); err != nil {
			return err
		}
	}

	var lo, hi *float64
	if v := op.AttrFloat("min", math.Inf(-1)); !math.IsInf(v, -1) {
		lo = &v
	}
	if v := op.AttrFloat("max", math.Inf(1)); !math.IsInf(v, 1) {
		hi = &v
	}

	out, err := ctx.Builder.ClipWithBounds(x, minVar, maxVar, lo, hi)
	if err != nil {
		return err
	}
	ctx.SetVar(outName, out)
	return nil
}
