// Copyright 2025 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the flint numeric engine:
// immutable float32 tensors, broadcasting arithmetic, matrix operations
// and the buffer-pool surface.
//
// Example:
//
//	x := tensor.MustFromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	y := tensor.Ones(tensor.Shape{2, 2})
//	z, err := tensor.Add(x, y)
package tensor

import (
	"github.com/flint-ml/flint/internal/pool"
	"github.com/flint-ml/flint/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} represents a 2x3 matrix.
type Shape = tensor.Shape

// Tensor is an immutable float32 value in the computation graph.
type Tensor = tensor.Tensor

// Operation is the graph edge linking a tensor to the inputs and
// derivative rule that produced it.
type Operation = tensor.Operation

// PoolStats reports buffer-pool occupancy for diagnostics.
type PoolStats = pool.Stats

// Creation functions

// New creates a tensor over an existing buffer without copying.
func New(data []float32, shape Shape) (*Tensor, error) {
	return tensor.New(data, shape)
}

// FromSlice creates a tensor from a Go slice, copying into a pooled
// buffer.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// MustFromSlice is FromSlice that panics on shape mismatch.
func MustFromSlice(data []float32, shape Shape) *Tensor {
	return tensor.MustFromSlice(data, shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float32) *Tensor {
	return tensor.Full(shape, value)
}

// Scalar creates a rank-0 tensor holding a single value.
func Scalar(value float32) *Tensor {
	return tensor.Scalar(value)
}

// Rand creates a tensor with values uniformly distributed in [0, 1).
func Rand(shape Shape) *Tensor {
	return tensor.Rand(shape)
}

// Randn creates a tensor with values from the standard normal
// distribution N(0, 1).
func Randn(shape Shape) *Tensor {
	return tensor.Randn(shape)
}

// XavierNormal creates a weight tensor initialized from
// N(0, 2/(fanIn+fanOut)) (Glorot variance scaling).
func XavierNormal(shape Shape, fanIn, fanOut int) *Tensor {
	return tensor.XavierNormal(shape, fanIn, fanOut)
}

// HeNormal creates a weight tensor initialized from N(0, 2/fanIn)
// (Kaiming variance scaling, for ReLU layers).
func HeNormal(shape Shape, fanIn int) *Tensor {
	return tensor.HeNormal(shape, fanIn)
}

// Arithmetic functions

// Add performs element-wise addition with broadcasting.
func Add(a, b *Tensor) (*Tensor, error) {
	return tensor.Add(a, b)
}

// Sub performs element-wise subtraction.
func Sub(a, b *Tensor) (*Tensor, error) {
	return tensor.Sub(a, b)
}

// Mul performs element-wise multiplication.
func Mul(a, b *Tensor) (*Tensor, error) {
	return tensor.Mul(a, b)
}

// MatMul performs 2D matrix multiplication.
func MatMul(a, b *Tensor) (*Tensor, error) {
	return tensor.MatMul(a, b)
}

// Transpose returns the transposed 2D matrix.
func Transpose(t *Tensor) (*Tensor, error) {
	return tensor.Transpose(t)
}

// Sum reduces a tensor to the single-element sum of its elements.
func Sum(t *Tensor) *Tensor {
	return tensor.Sum(t)
}

// Mean reduces a tensor to the single-element mean of its elements.
func Mean(t *Tensor) *Tensor {
	return tensor.Mean(t)
}

// Reshape views a tensor under a new shape with the same element count.
func Reshape(t *Tensor, shape Shape) (*Tensor, error) {
	return tensor.Reshape(t, shape)
}

// ReLU applies the rectified linear activation.
func ReLU(t *Tensor) *Tensor {
	return tensor.ReLU(t)
}

// Memory-management surface

// AcquireBuffer returns a zero-filled pooled buffer of exactly size
// elements.
func AcquireBuffer(size int) []float32 {
	return pool.Acquire(size)
}

// ReleaseBuffer marks a pooled buffer free for reuse.
func ReleaseBuffer(buf []float32) {
	pool.Release(buf)
}

// ClearPool drops every pooled buffer.
func ClearPool() {
	pool.Clear()
}

// GetPoolStats returns total/in-use/available pooled buffer counts.
func GetPoolStats() PoolStats {
	return pool.GetStats()
}

// SetPoolingEnabled toggles buffer pooling; while disabled, acquires
// degrade to plain allocation.
func SetPoolingEnabled(enabled bool) {
	pool.SetEnabled(enabled)
}

// ScopedBuffers runs fn and releases the pool buffers acquired during
// fn on every exit path, normal or error.
func ScopedBuffers(fn func() error) error {
	return pool.Scoped(fn)
}
