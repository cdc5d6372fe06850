// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/fanout/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor data types (float32, float64).
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a shaped tensor with a shareable data buffer and an exclusive
// gradient buffer.
type Tensor[T DType] = tensor.Tensor[T]

// Empty returns a tensor with shape [0] and no storage.
func Empty[T DType]() *Tensor[T] {
	return tensor.Empty[T]()
}

// New creates a zero-filled tensor with the given shape.
func New[T DType](shape Shape) (*Tensor[T], error) {
	return tensor.New[T](shape)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice[T DType](data []T, shape Shape) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape)
}

// ParseDataType maps "float32" / "float64" to a DataType.
func ParseDataType(name string) (DataType, bool) {
	return tensor.ParseDataType(name)
}
