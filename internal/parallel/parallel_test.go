// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForSequential(t *testing.T) {
	cfg := Config{Enabled: false}
	var count int
	For(10, func(i int) { count++ }, cfg)
	if count != 10 {
		t.Errorf("count = %d, want 10", count)
	}
}

func TestForParallelCoversAllIndices(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	seen := make([]int32, 100)
	For(100, func(i int) { atomic.AddInt32(&seen[i], 1) }, cfg)
	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestForSmallFallsBackToSequential(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}
	var count int // safe only because the loop must run sequentially
	For(4, func(i int) { count++ }, cfg)
	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}
}

func TestForZero(t *testing.T) {
	For(0, func(i int) { t.Error("f must not be called") }, DefaultConfig())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NumWorkers < 1 {
		t.Errorf("NumWorkers = %d, want >= 1", cfg.NumWorkers)
	}
	if cfg.MinChunkSize < 1 {
		t.Errorf("MinChunkSize = %d, want >= 1", cfg.MinChunkSize)
	}
}
