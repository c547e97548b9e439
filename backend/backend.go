// Copyright 2025 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package backend exposes the acceleration surface: loading the
// optional accelerated backends and obtaining the asynchronous device
// handle.
//
// The operation library consults only the accelerated synchronous
// backend automatically (matrix multiplies past the size threshold).
// The asynchronous device backend is reached exclusively through GPU():
// its calls suspend the caller for host/device transfers, which is
// worth paying only for large batched workloads.
package backend

import (
	"github.com/flint-ml/flint/internal/backend"
	"github.com/flint-ml/flint/internal/backend/webgpu"
)

// GPU is the asynchronous device handle. Every method submits work to
// the device queue, awaits completion and maps the result back to host
// memory before returning.
type GPU = webgpu.Device

// MatMulThreshold is the output element count at which matrix
// multiplication dispatches to the accelerated synchronous backend.
const MatMulThreshold = backend.MatMulThreshold

// LoadAcceleration registers the accelerated synchronous kernel.
// Idempotent; returns false when the host cannot benefit from it, in
// which case the engine continues correctly on the in-process path.
func LoadAcceleration() bool {
	return backend.LoadAcceleration()
}

// LoadGPUAcceleration initializes the asynchronous device backend.
// Idempotent and never panics; returns false when no usable device is
// available.
func LoadGPUAcceleration() bool {
	return backend.LoadGPUAcceleration()
}

// IsGPUAvailable reports whether the asynchronous device backend has
// been loaded.
func IsGPUAvailable() bool {
	return backend.IsGPUAvailable()
}

// GetGPU returns the asynchronous device handle. Fails if
// LoadGPUAcceleration never succeeded.
func GetGPU() (*GPU, error) {
	return backend.GPU()
}
