// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/x448/float16"
)

// Device represents the compute device holding a tensor.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// tensorBuffer is a reference-counted shared buffer enabling cheap clones
// and in-place kernels when refCount == 1.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
}

func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{data: make([]byte, size)}
	buf.refCount.Store(1)
	return buf
}

func (tb *tensorBuffer) addRef()        { tb.refCount.Add(1) }
func (tb *tensorBuffer) isUnique() bool { return tb.refCount.Load() == 1 }

// RawTensor is the low-level, dtype-erased tensor representation that the
// backends and the executor operate on.
type RawTensor struct {
	buffer *tensorBuffer
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw creates a zero-initialized RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &RawTensor{
		buffer: newTensorBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// MustNewRaw is NewRaw for shapes already validated by the caller.
func MustNewRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	r, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape { return r.shape }

// Strides returns the tensor's row-major memory strides.
func (r *RawTensor) Strides() []int { return r.stride }

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType { return r.dtype }

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device { return r.device }

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int { return r.shape.NumElements() }

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int { return r.NumElements() * r.dtype.Size() }

// Data returns the raw byte slice backing the tensor.
func (r *RawTensor) Data() []byte { return r.buffer.data }

// IsUnique reports whether this tensor is the only reference to its buffer,
// enabling in-place kernels.
func (r *RawTensor) IsUnique() bool { return r.buffer.isUnique() }

// ForceNonUnique temporarily pins the buffer so no kernel mutates it in
// place. The returned func undoes the pin; use with defer.
func (r *RawTensor) ForceNonUnique() func() {
	r.buffer.addRef()
	return func() { r.buffer.refCount.Add(-1) }
}

// AsFloat16 interprets the data as a []float16.Float16 view.
func (r *RawTensor) AsFloat16() []float16.Float16 {
	r.checkDType(Float16)
	return rawSlice[float16.Float16](r)
}

// AsFloat32 interprets the data as a []float32 view.
func (r *RawTensor) AsFloat32() []float32 {
	r.checkDType(Float32)
	return rawSlice[float32](r)
}

// AsFloat64 interprets the data as a []float64 view.
func (r *RawTensor) AsFloat64() []float64 {
	r.checkDType(Float64)
	return rawSlice[float64](r)
}

// AsInt32 interprets the data as a []int32 view.
func (r *RawTensor) AsInt32() []int32 {
	r.checkDType(Int32)
	return rawSlice[int32](r)
}

// AsInt64 interprets the data as a []int64 view.
func (r *RawTensor) AsInt64() []int64 {
	r.checkDType(Int64)
	return rawSlice[int64](r)
}

// AsUint8 interprets the data as a []uint8 view.
func (r *RawTensor) AsUint8() []uint8 {
	r.checkDType(Uint8)
	return r.buffer.data[:r.NumElements()]
}

// AsBool interprets the data as a []bool view.
func (r *RawTensor) AsBool() []bool {
	r.checkDType(Bool)
	return rawSlice[bool](r)
}

func (r *RawTensor) checkDType(want DataType) {
	if r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
}

func rawSlice[T any](r *RawTensor) []T {
	n := r.NumElements()
	if n == 0 || len(r.buffer.data) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&r.buffer.data[0])), n)
}

// Clone creates a deep copy of the tensor.
func (r *RawTensor) Clone() *RawTensor {
	out := MustNewRaw(r.shape, r.dtype, r.device)
	copy(out.buffer.data, r.buffer.data)
	return out
}

// WithShape returns a tensor sharing this tensor's buffer but carrying a
// different shape. The element count must match.
func (r *RawTensor) WithShape(shape Shape) *RawTensor {
	if shape.NumElements() != r.NumElements() {
		panic(fmt.Sprintf("reshape %v -> %v changes element count", r.shape, shape))
	}
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  r.dtype,
		device: r.device,
	}
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor[%s]%v on %s", r.dtype, r.shape, r.device)
}
