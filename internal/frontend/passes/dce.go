// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package passes

import (
	"github.com/zzk0/CINN/internal/frontend"
)

// DeadCodeElimination drops instructions whose outputs are never consumed
// by a later instruction or named as a fetch. Runs last so the rewrites of
// earlier passes cannot leave dangling instructions behind.
type DeadCodeElimination struct{}

func (*DeadCodeElimination) Name() string { return "dead_code_elimination" }

func (*DeadCodeElimination) Apply(p *frontend.Program, fetches []string) error {
	live := make(map[string]bool, len(fetches))
	for _, name := range fetches {
		live[name] = true
	}

	kept := make([]*frontend.Instruction, 0, len(p.Instructions))
	for i := len(p.Instructions) - 1; i >= 0; i-- {
		instr := p.Instructions[i]
		used := false
		for _, out := range instr.Outputs {
			if live[out] {
				used = true
				break
			}
		}
		if !used {
			continue
		}
		for _, in := range instr.Inputs {
			live[in] = true
		}
		kept = append(kept, instr)
	}

	// kept is in reverse order
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	p.Instructions = kept
	return nil
}
