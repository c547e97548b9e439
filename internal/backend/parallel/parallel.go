// Package parallel implements the accelerated synchronous kernel
// provider. Work is fanned out across worker goroutines but every call
// completes before returning, so callers see the same synchronous
// contract as the in-process kernel.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	NumWorkers   int // Number of worker goroutines to use.
	MinChunkSize int // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	return Config{
		NumWorkers:   runtime.NumCPU(),
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// forEach executes f(i) for i in [0, n) across the configured workers.
// Falls back to sequential execution when n is too small to amortize
// goroutine overhead.
func forEach(n int, f func(i int), cfg Config) {
	if n < cfg.MinChunkSize || cfg.NumWorkers < 2 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// Kernel is the accelerated synchronous provider.
type Kernel struct {
	cfg Config
}

// New creates the provider with defaults. The second return is false on
// single-CPU hosts, where fan-out cannot beat the tiled in-process
// kernel; callers treat that as the backend being unavailable.
func New() (*Kernel, bool) {
	cfg := DefaultConfig()
	if cfg.NumWorkers < 2 {
		return nil, false
	}
	return &Kernel{cfg: cfg}, true
}

// NewWithConfig creates the provider with an explicit configuration.
// Used by tests to force deterministic worker counts.
func NewWithConfig(cfg Config) *Kernel {
	return &Kernel{cfg: cfg}
}

// Name returns the provider name.
func (k *Kernel) Name() string {
	return "parallel"
}

// MatMul computes dst = a @ b for row-major [m,kk] @ [kk,n], one output
// row per task. Rows are independent, so workers never write the same
// element, and the per-row accumulation order matches the in-process
// kernel.
func (k *Kernel) MatMul(dst, a, b []float32, m, kk, n int) {
	forEach(m, func(i int) {
		out := dst[i*n : i*n+n]
		for j := range out {
			out[j] = 0
		}
		for kIdx := 0; kIdx < kk; kIdx++ {
			av := a[i*kk+kIdx]
			row := b[kIdx*n : kIdx*n+n]
			for j := 0; j < n; j++ {
				out[j] += av * row[j]
			}
		}
	}, k.cfg)
}

// Add computes dst = a + b elementwise.
func (k *Kernel) Add(dst, a, b []float32) {
	forEach(len(dst), func(i int) {
		dst[i] = a[i] + b[i]
	}, k.cfg)
}

// Mul computes dst = a * b elementwise.
func (k *Kernel) Mul(dst, a, b []float32) {
	forEach(len(dst), func(i int) {
		dst[i] = a[i] * b[i]
	}, k.cfg)
}

// ReLU computes dst = max(0, x) elementwise.
func (k *Kernel) ReLU(dst, x []float32) {
	forEach(len(dst), func(i int) {
		if x[i] > 0 {
			dst[i] = x[i]
		} else {
			dst[i] = 0
		}
	}, k.cfg)
}
