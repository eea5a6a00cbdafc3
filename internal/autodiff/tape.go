// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff

import (
	"github.com/zzk0/CINN/internal/autodiff/ops"
	"github.com/zzk0/CINN/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass by reverse-mode accumulation.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{operations: make([]ops.Operation, 0, 64)}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() { t.recording = true }

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() { t.recording = false }

// IsRecording returns true if the tape is currently recording.
func (t *GradientTape) IsRecording() bool { return t.recording }

// Record adds an operation to the tape if recording is enabled.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape; the recording state is preserved.
func (t *GradientTape) Clear() { t.operations = t.operations[:0] }

// Backward walks the tape in reverse from root, seeding it with seed
// (ones, for the usual sum-of-outputs loss), and returns the accumulated
// gradient for every tensor reached.
func (t *GradientTape) Backward(root, seed *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	// Gradient ops must not record themselves.
	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	grads[root] = seed

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue // no gradient flows through this op
		}
		inputGrads := op.Backward(outGrad, backend)
		for j, input := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}
	return grads
}
