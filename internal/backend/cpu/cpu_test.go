package cpu

import (
	"math/rand"
	"testing"
)

// naiveMatMul is the reference triple loop the tiled kernel must match
// bit-for-bit (the accumulation order over k is ascending in both).
func naiveMatMul(dst, a, b []float32, m, k, n int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for kk := 0; kk < k; kk++ {
				sum += a[i*k+kk] * b[kk*n+j]
			}
			dst[i*n+j] = sum
		}
	}
}

func randSlice(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = rand.Float32()*2 - 1 //nolint:gosec // G404: test data
	}
	return out
}

func TestMatMulKnownValues(t *testing.T) {
	k := New()

	dst := make([]float32, 4)
	k.MatMul(dst, []float32{1, 2, 3, 4}, []float32{5, 6, 7, 8}, 2, 2, 2)

	want := []float32{19, 22, 43, 50}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("MatMul[%d]: expected %v, got %v", i, want[i], dst[i])
		}
	}
}

func TestMatMulMatchesNaive(t *testing.T) {
	k := New()

	// Sizes chosen to land inside, at, and across the 32-wide tile.
	cases := []struct{ m, kk, n int }{
		{1, 1, 1},
		{7, 5, 3},
		{32, 32, 32},
		{33, 34, 35},
		{64, 17, 48},
	}

	for _, c := range cases {
		a := randSlice(c.m * c.kk)
		b := randSlice(c.kk * c.n)
		got := make([]float32, c.m*c.n)
		want := make([]float32, c.m*c.n)

		k.MatMul(got, a, b, c.m, c.kk, c.n)
		naiveMatMul(want, a, b, c.m, c.kk, c.n)

		for i := range want {
			if got[i] != want[i] {
				t.Errorf("MatMul %dx%dx%d [%d]: expected %v, got %v", c.m, c.kk, c.n, i, want[i], got[i])
			}
		}
	}
}

func TestMatMulOverwritesDst(t *testing.T) {
	k := New()

	dst := []float32{99, 99, 99, 99}
	k.MatMul(dst, []float32{1, 0, 0, 1}, []float32{1, 2, 3, 4}, 2, 2, 2)

	want := []float32{1, 2, 3, 4}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("MatMul[%d]: stale dst contents leaked: expected %v, got %v", i, want[i], dst[i])
		}
	}
}

func TestElementwise(t *testing.T) {
	k := New()

	a := []float32{1, -2, 3}
	b := []float32{10, 20, 30}
	dst := make([]float32, 3)

	k.Add(dst, a, b)
	if dst[0] != 11 || dst[1] != 18 || dst[2] != 33 {
		t.Errorf("Add: got %v", dst)
	}

	k.Mul(dst, a, b)
	if dst[0] != 10 || dst[1] != -40 || dst[2] != 90 {
		t.Errorf("Mul: got %v", dst)
	}

	k.ReLU(dst, a)
	if dst[0] != 1 || dst[1] != 0 || dst[2] != 3 {
		t.Errorf("ReLU: got %v", dst)
	}
}

func TestName(t *testing.T) {
	if got := New().Name(); got != "cpu" {
		t.Errorf("Name: expected %q, got %q", "cpu", got)
	}
}
