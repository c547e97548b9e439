// Package backend routes kernel work to one of three providers: the
// in-process tiled kernels (always available), an accelerated
// synchronous kernel loaded on demand, and an accelerated asynchronous
// device kernel reached only through an explicit handle.
//
// All providers honor the same numeric contract for matmul/add/mul/
// activation: bit-identical results up to float32 rounding, differing
// only in performance and synchronicity.
package backend

import (
	"fmt"
	"sync"

	"github.com/flint-ml/flint/internal/backend/cpu"
	"github.com/flint-ml/flint/internal/backend/parallel"
	"github.com/flint-ml/flint/internal/backend/webgpu"
)

// MatMulThreshold is the output element count at which matrix
// multiplication dispatches to the accelerated synchronous kernel. The
// tiled default is asymptotically correct but not competitive at that
// scale.
const MatMulThreshold = 1024

// Kernel is the closed contract every synchronous provider implements.
type Kernel interface {
	// Name identifies the provider for diagnostics.
	Name() string
	// MatMul computes dst = a @ b for row-major [m,k] and [k,n] operands.
	MatMul(dst, a, b []float32, m, k, n int)
	// Add computes dst = a + b elementwise.
	Add(dst, a, b []float32)
	// Mul computes dst = a * b elementwise.
	Mul(dst, a, b []float32)
	// ReLU computes dst = max(0, x) elementwise.
	ReLU(dst, x []float32)
}

// Dispatcher holds the registered providers. The in-process kernel is
// always present; the accelerated ones are loaded explicitly.
type Dispatcher struct {
	mu    sync.RWMutex
	base  Kernel
	accel Kernel
	gpu   *webgpu.Device
}

// NewDispatcher creates a dispatcher with only the in-process kernel
// registered.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{base: cpu.New()}
}

// Base returns the in-process kernel.
func (d *Dispatcher) Base() Kernel {
	return d.base
}

// LoadAcceleration registers the accelerated synchronous kernel.
// Idempotent. Returns false when the host cannot benefit from it
// (single CPU); the system then simply continues on the tiled path.
func (d *Dispatcher) LoadAcceleration() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.accel != nil {
		return true
	}
	k, ok := parallel.New()
	if !ok {
		return false
	}
	d.accel = k
	return true
}

// LoadGPUAcceleration initializes the asynchronous device backend.
// Idempotent and never panics: on hosts without a usable device it
// returns false and the synchronous paths keep working.
func (d *Dispatcher) LoadGPUAcceleration() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.gpu != nil {
		return true
	}
	dev, err := webgpu.New()
	if err != nil {
		return false
	}
	d.gpu = dev
	return true
}

// IsGPUAvailable reports whether the asynchronous device backend has
// been loaded.
func (d *Dispatcher) IsGPUAvailable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gpu != nil
}

// GPU returns the asynchronous device handle. It fails if
// LoadGPUAcceleration never succeeded; the device is never consulted
// implicitly.
func (d *Dispatcher) GPU() (*webgpu.Device, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.gpu == nil {
		return nil, fmt.Errorf("backend: GPU acceleration not loaded; call LoadGPUAcceleration first")
	}
	return d.gpu, nil
}

// MatMulKernel selects the kernel for a multiply producing outElems
// elements: the accelerated synchronous kernel once loaded and past the
// threshold, the tiled in-process kernel otherwise.
func (d *Dispatcher) MatMulKernel(outElems int) Kernel {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.accel != nil && outElems >= MatMulThreshold {
		return d.accel
	}
	return d.base
}

// Default is the process-wide dispatcher backing the package-level
// surface.
var Default = NewDispatcher()

// Base returns the default dispatcher's in-process kernel.
func Base() Kernel {
	return Default.Base()
}

// MatMulKernel selects a kernel from the default dispatcher.
func MatMulKernel(outElems int) Kernel {
	return Default.MatMulKernel(outElems)
}

// LoadAcceleration loads the accelerated synchronous kernel into the
// default dispatcher.
func LoadAcceleration() bool {
	return Default.LoadAcceleration()
}

// LoadGPUAcceleration loads the asynchronous device backend into the
// default dispatcher.
func LoadGPUAcceleration() bool {
	return Default.LoadGPUAcceleration()
}

// IsGPUAvailable reports device availability on the default dispatcher.
func IsGPUAvailable() bool {
	return Default.IsGPUAvailable()
}

// GPU returns the default dispatcher's device handle.
func GPU() (*webgpu.Device, error) {
	return Default.GPU()
}
