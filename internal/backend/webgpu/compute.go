//go:build windows

// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/zzk0/CINN/internal/tensor"
)

// compileShader compiles WGSL source, caching by name.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()
	return shader
}

// getOrCreatePipeline returns a cached compute pipeline for the shader.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()
	return pipeline
}

// createStorageBuffer uploads data into a storage buffer.
func (b *Backend) createStorageBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mappedPtr := buffer.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()
	return buffer
}

// createUniformBuffer uploads data into a 16-byte aligned uniform buffer.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})
	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()
	return buffer
}

// readBuffer copies a GPU buffer back to host memory via a staging buffer.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	if err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}
	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	stagingBuffer.Unmap()
	return result, nil
}

// dispatch runs one compute pass over the pipeline with the given
// bind group entries and thread count.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, entries []wgpu.BindGroupEntry, threads int) error {
	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("failed to create bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	groups := uint32((threads + workgroupSize - 1) / workgroupSize)
	pass.DispatchWorkgroups(groups, 1, 1)
	pass.End()
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
	return nil
}

func bindGroupEntry(binding uint32, buffer *wgpu.Buffer, size uint64) wgpu.BindGroupEntry {
	return wgpu.BindGroupEntry{Binding: binding, Buffer: buffer, Offset: 0, Size: size}
}

// runBinaryOp executes a same-shape float32 element-wise op on the GPU.
func (b *Backend) runBinaryOp(x, y *tensor.RawTensor, name, code string) (*tensor.RawTensor, error) {
	size := uint64(x.ByteSize())
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	aBuf := b.createStorageBuffer(x.Data(), wgpu.BufferUsageStorage)
	defer aBuf.Release()
	bBuf := b.createStorageBuffer(y.Data(), wgpu.BufferUsageStorage)
	defer bBuf.Release()
	outBuf := b.bufferPool.Acquire(size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer b.bufferPool.Put(outBuf, size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)

	params := make([]byte, 4)
	binary.LittleEndian.PutUint32(params, uint32(x.NumElements()))
	paramBuf := b.createUniformBuffer(params)
	defer paramBuf.Release()

	err := b.dispatch(pipeline, []wgpu.BindGroupEntry{
		bindGroupEntry(0, aBuf, size),
		bindGroupEntry(1, bBuf, size),
		bindGroupEntry(2, outBuf, size),
		bindGroupEntry(3, paramBuf, 16),
	}, x.NumElements())
	if err != nil {
		return nil, err
	}

	data, err := b.readBuffer(outBuf, size)
	if err != nil {
		return nil, err
	}
	out := tensor.MustNewRaw(x.Shape(), x.DType(), tensor.WebGPU)
	copy(out.Data(), data)
	return out, nil
}

// runUnaryOp executes a float32 element-wise shader with one input.
func (b *Backend) runUnaryOp(x *tensor.RawTensor, name, code string) (*tensor.RawTensor, error) {
	size := uint64(x.ByteSize())
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	xBuf := b.createStorageBuffer(x.Data(), wgpu.BufferUsageStorage)
	defer xBuf.Release()
	outBuf := b.bufferPool.Acquire(size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer b.bufferPool.Put(outBuf, size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)

	params := make([]byte, 4)
	binary.LittleEndian.PutUint32(params, uint32(x.NumElements()))
	paramBuf := b.createUniformBuffer(params)
	defer paramBuf.Release()

	err := b.dispatch(pipeline, []wgpu.BindGroupEntry{
		bindGroupEntry(0, xBuf, size),
		bindGroupEntry(1, outBuf, size),
		bindGroupEntry(2, paramBuf, 16),
	}, x.NumElements())
	if err != nil {
		return nil, err
	}

	data, err := b.readBuffer(outBuf, size)
	if err != nil {
		return nil, err
	}
	out := tensor.MustNewRaw(x.Shape(), x.DType(), tensor.WebGPU)
	copy(out.Data(), data)
	return out, nil
}

// runClip executes the clip shader over a float32 tensor.
func (b *Backend) runClip(x *tensor.RawTensor, lo, hi float64) (*tensor.RawTensor, error) {
	size := uint64(x.ByteSize())
	shader := b.compileShader("clip", clipShader)
	pipeline := b.getOrCreatePipeline("clip", shader)

	xBuf := b.createStorageBuffer(x.Data(), wgpu.BufferUsageStorage)
	defer xBuf.Release()
	outBuf := b.bufferPool.Acquire(size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer b.bufferPool.Put(outBuf, size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)

	params := make([]byte, 12)
	binary.LittleEndian.PutUint32(params[0:], uint32(x.NumElements()))
	binary.LittleEndian.PutUint32(params[4:], math.Float32bits(float32(lo)))
	binary.LittleEndian.PutUint32(params[8:], math.Float32bits(float32(hi)))
	paramBuf := b.createUniformBuffer(params)
	defer paramBuf.Release()

	err := b.dispatch(pipeline, []wgpu.BindGroupEntry{
		bindGroupEntry(0, xBuf, size),
		bindGroupEntry(1, outBuf, size),
		bindGroupEntry(2, paramBuf, 16),
	}, x.NumElements())
	if err != nil {
		return nil, err
	}

	data, err := b.readBuffer(outBuf, size)
	if err != nil {
		return nil, err
	}
	out := tensor.MustNewRaw(x.Shape(), x.DType(), tensor.WebGPU)
	copy(out.Data(), data)
	return out, nil
}

// runTriangularSolve executes the substitution shader. Operands must be
// float32 with equal batch dimensions.
func (b *Backend) runTriangularSolve(a, rhs *tensor.RawTensor, upper, transposeA, unitDiagonal bool) (*tensor.RawTensor, error) {
	aRank := a.Shape().Rank()
	m := a.Shape()[aRank-1]
	k := rhs.Shape()[rhs.Shape().Rank()-1]
	batch := 1
	for _, d := range a.Shape()[:aRank-2] {
		batch *= d
	}

	size := uint64(rhs.ByteSize())
	shader := b.compileShader("triangular_solve", triangularSolveShader)
	pipeline := b.getOrCreatePipeline("triangular_solve", shader)

	aBuf := b.createStorageBuffer(a.Data(), wgpu.BufferUsageStorage)
	defer aBuf.Release()
	rhsBuf := b.createStorageBuffer(rhs.Data(), wgpu.BufferUsageStorage)
	defer rhsBuf.Release()
	outBuf := b.bufferPool.Acquire(size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer b.bufferPool.Put(outBuf, size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)

	var flags uint32
	if upper {
		flags |= 1
	}
	if transposeA {
		flags |= 2
	}
	if unitDiagonal {
		flags |= 4
	}
	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:], uint32(batch))
	binary.LittleEndian.PutUint32(params[4:], uint32(m))
	binary.LittleEndian.PutUint32(params[8:], uint32(k))
	binary.LittleEndian.PutUint32(params[12:], flags)
	paramBuf := b.createUniformBuffer(params)
	defer paramBuf.Release()

	err := b.dispatch(pipeline, []wgpu.BindGroupEntry{
		bindGroupEntry(0, aBuf, uint64(a.ByteSize())),
		bindGroupEntry(1, rhsBuf, size),
		bindGroupEntry(2, outBuf, size),
		bindGroupEntry(3, paramBuf, 16),
	}, batch*k)
	if err != nil {
		return nil, err
	}

	data, err := b.readBuffer(outBuf, size)
	if err != nil {
		return nil, err
	}
	out := tensor.MustNewRaw(rhs.Shape(), rhs.DType(), tensor.WebGPU)
	copy(out.Data(), data)
	return out, nil
}
