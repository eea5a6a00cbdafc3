// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the core tensor types shared by every backend and
// by the graph frontend.
package tensor

import (
	"fmt"

	"github.com/x448/float16"
)

// DType is a constraint for element types usable with the generic Tensor.
// Float16 tensors are handled through RawTensor directly, since the half
// float is a distinct storage type (see AsFloat16).
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8 | ~bool
}

// DataType is the runtime element type of a tensor.
type DataType int

// Supported element types.
const (
	Invalid DataType = iota
	Float16
	Float32
	Float64
	Int32
	Int64
	Uint8
	Bool
)

// Size returns the element size in bytes.
func (dt DataType) Size() int {
	switch dt {
	case Float16:
		return 2
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Uint8, Bool:
		return 1
	default:
		panic(fmt.Sprintf("unknown dtype %d", dt))
	}
}

// String returns the canonical lower-case name, matching the names used by
// op descriptions ("float32", "int64", ...).
func (dt DataType) String() string {
	switch dt {
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
}

// ParseDataType converts a canonical dtype name into a DataType.
func ParseDataType(name string) (DataType, error) {
	switch name {
	case "float16":
		return Float16, nil
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	case "int32":
		return Int32, nil
	case "int64":
		return Int64, nil
	case "uint8":
		return Uint8, nil
	case "bool":
		return Bool, nil
	default:
		return Invalid, fmt.Errorf("unknown dtype name %q", name)
	}
}

// IsFloat reports whether the dtype is a floating point type.
func (dt DataType) IsFloat() bool {
	return dt == Float16 || dt == Float32 || dt == Float64
}

// IsInt reports whether the dtype is a signed integer type.
func (dt DataType) IsInt() bool {
	return dt == Int32 || dt == Int64
}

// inferDataType maps a Go element type to its DataType.
func inferDataType(v any) DataType {
	switch v.(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case bool:
		return Bool
	case float16.Float16:
		return Float16
	default:
		panic(fmt.Sprintf("unsupported element type %T", v))
	}
}
