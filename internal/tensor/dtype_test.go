// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"testing"
)

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		want  int
	}{
		{Float16, 2},
		{Float32, 4},
		{Float64, 8},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
		{Bool, 1},
	}
	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.want {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.want)
		}
	}
}

func TestParseDataTypeRoundTrip(t *testing.T) {
	for _, dtype := range []DataType{Float16, Float32, Float64, Int32, Int64, Uint8, Bool} {
		parsed, err := ParseDataType(dtype.String())
		if err != nil {
			t.Errorf("ParseDataType(%q) error: %v", dtype.String(), err)
			continue
		}
		if parsed != dtype {
			t.Errorf("ParseDataType(%q) = %v, want %v", dtype.String(), parsed, dtype)
		}
	}
}

func TestParseDataTypeUnknown(t *testing.T) {
	if _, err := ParseDataType("complex64"); err == nil {
		t.Error("ParseDataType should reject unknown names")
	}
}

func TestIsFloatIsInt(t *testing.T) {
	if !Float32.IsFloat() || !Float64.IsFloat() || !Float16.IsFloat() {
		t.Error("float dtypes should report IsFloat")
	}
	if Int32.IsFloat() {
		t.Error("Int32 must not report IsFloat")
	}
	if !Int32.IsInt() || !Int64.IsInt() {
		t.Error("int dtypes should report IsInt")
	}
	if Uint8.IsInt() {
		t.Error("Uint8 is unsigned, IsInt should be false")
	}
}
