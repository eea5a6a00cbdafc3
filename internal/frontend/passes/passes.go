// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package passes rewrites built programs before execution. Composite
// operations are lowered to primitives and dead instructions are dropped,
// so the executor only ever sees a small primitive vocabulary.
package passes

import (
	"github.com/pkg/errors"
	"github.com/zzk0/CINN/internal/frontend"
)

// Pass transforms a program in place. Fetches name the outputs the caller
// will read; a pass must keep them computable.
type Pass interface {
	Name() string
	Apply(p *frontend.Program, fetches []string) error
}

// Default returns the standard pipeline in application order.
func Default() []Pass {
	return []Pass{
		&ClipDecomposer{},
		&TriangularSolveNormalizer{},
		&DeadCodeElimination{},
	}
}

// Run applies the passes in order, stopping at the first failure.
func Run(p *frontend.Program, fetches []string, passes ...Pass) error {
	for _, pass := range passes {
		if err := pass.Apply(p, fetches); err != nil {
			return errors.Wrapf(err, "pass %s", pass.Name())
		}
	}
	return nil
}
