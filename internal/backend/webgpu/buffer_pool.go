//go:build windows

// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

const maxPooledPerClass = 64

type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// BufferPool reuses GPU buffers across dispatches. Storage buffers are
// allocated far more often than they change size in batched workloads,
// so pooling removes most allocation overhead.
type BufferPool struct {
	device *wgpu.Device

	free []*pooledBuffer
	mu   sync.Mutex

	poolHits   uint64
	poolMisses uint64
}

// NewBufferPool creates a pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device}
}

// Acquire returns a buffer of at least size bytes with the given usage,
// reusing a pooled one when possible.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	for i, pb := range p.free {
		if pb.size >= size && pb.usage&usage == usage {
			p.free = append(p.free[:i], p.free[i+1:]...)
			p.poolHits++
			p.mu.Unlock()
			return pb.buffer
		}
	}
	p.poolMisses++
	p.mu.Unlock()

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Put returns a buffer to the pool, releasing it when the pool is full.
func (p *BufferPool) Put(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	if len(p.free) < maxPooledPerClass {
		p.free = append(p.free, &pooledBuffer{buffer: buffer, size: size, usage: usage})
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	buffer.Release()
}

// Clear releases every pooled buffer.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pb := range p.free {
		pb.buffer.Release()
	}
	p.free = nil
}

// Stats reports pool hit and miss counts.
func (p *BufferPool) Stats() (hits, misses uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.poolHits, p.poolMisses
}
