//go:build windows

// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package webgpu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/zzk0/CINN/internal/backend/cpu"
	"github.com/zzk0/CINN/internal/tensor"
)

// Backend runs tensor operations through WebGPU compute pipelines.
// Operations without a shader delegate to the CPU backend, so the full
// tensor.Backend surface stays usable on any machine with a GPU.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	bufferPool *BufferPool

	// fallback handles dtypes and operations the shaders do not cover
	fallback *cpu.Backend
}

// New creates a WebGPU backend, or an error when no usable adapter or
// native library is available.
func New() (backend *Backend, err error) {
	// the native loader panics when wgpu_native is missing
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	b := &Backend{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
		fallback:  cpu.New(),
	}
	b.bufferPool = NewBufferPool(device)
	return b, nil
}

// IsAvailable reports whether a WebGPU adapter can be acquired on this
// machine. Useful for falling back to the CPU backend.
func IsAvailable() (available bool) {
	// the native loader panics when wgpu_native is missing
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// Name returns the backend name.
func (b *Backend) Name() string { return "WebGPU" }

// Device returns the compute device.
func (b *Backend) Device() tensor.Device { return tensor.WebGPU }

// Release frees all GPU resources. The backend must not be used after.
func (b *Backend) Release() {
	b.mu.Lock()
	for _, p := range b.pipelines {
		p.Release()
	}
	for _, s := range b.shaders {
		s.Release()
	}
	b.pipelines = nil
	b.shaders = nil
	b.mu.Unlock()

	b.bufferPool.Clear()
	b.device.Release()
	b.adapter.Release()
	b.instance.Release()
}

// binaryShaderFor instantiates the element-wise template for an infix
// expression such as "a[idx] + b[idx]" or "min(a[idx], b[idx])".
func binaryShaderFor(expr string) string {
	return strings.Replace(binaryShaderTemplate, "EXPR", expr, 1)
}
