// Package cpu implements the in-process kernel provider: pure Go, runs
// entirely on the calling goroutine, never suspends.
package cpu

// matMulTile is the tile width of the cache-blocked matmul loop.
const matMulTile = 32

// Kernel is the in-process provider.
type Kernel struct{}

// New creates the in-process kernel.
func New() *Kernel {
	return &Kernel{}
}

// Name returns the provider name.
func (k *Kernel) Name() string {
	return "cpu"
}

// MatMul computes dst = a @ b for row-major [m,k] @ [k,n].
// Cache-tiled triple loop: each 32-wide tile of the inner dimension is
// streamed against a row of b before moving on, which keeps b's rows
// hot in cache. Accumulation order over the inner dimension stays
// ascending, so results match the naive loop bit-for-bit.
func (k *Kernel) MatMul(dst, a, b []float32, m, kk, n int) {
	for i := range dst {
		dst[i] = 0
	}

	for i0 := 0; i0 < m; i0 += matMulTile {
		iMax := min(i0+matMulTile, m)
		for k0 := 0; k0 < kk; k0 += matMulTile {
			kMax := min(k0+matMulTile, kk)
			for j0 := 0; j0 < n; j0 += matMulTile {
				jMax := min(j0+matMulTile, n)
				for i := i0; i < iMax; i++ {
					for kIdx := k0; kIdx < kMax; kIdx++ {
						av := a[i*kk+kIdx]
						row := b[kIdx*n : kIdx*n+n]
						out := dst[i*n : i*n+n]
						for j := j0; j < jMax; j++ {
							out[j] += av * row[j]
						}
					}
				}
			}
		}
	}
}

// Add computes dst = a + b elementwise.
func (k *Kernel) Add(dst, a, b []float32) {
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}

// Mul computes dst = a * b elementwise.
func (k *Kernel) Mul(dst, a, b []float32) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

// ReLU computes dst = max(0, x) elementwise.
func (k *Kernel) ReLU(dst, x []float32) {
	for i, v := range x {
		if v > 0 {
			dst[i] = v
		} else {
			dst[i] = 0
		}
	}
}
