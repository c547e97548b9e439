package tensor

import (
	"math"
	"math/rand"

	"github.com/flint-ml/flint/internal/pool"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
func Zeros(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(err) // Literal shapes are programmer-controlled
	}
	// Pool buffers are zero-filled on acquire
	return &Tensor{data: pool.Acquire(shape.NumElements()), shape: shape.Clone()}
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full(tensor.Shape{3, 3}, 3.14)
func Full(shape Shape, value float32) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Scalar creates a rank-0 tensor holding a single value.
func Scalar(value float32) *Tensor {
	return Full(Shape{}, value)
}

// Rand creates a tensor with random values uniformly distributed in [0, 1).
// Note: Uses math/rand (not crypto/rand) - appropriate for ML purposes.
func Rand(shape Shape) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = rand.Float32() //nolint:gosec // G404: ML uses math/rand intentionally
	}
	return t
}

// Randn creates a tensor with random values from a normal distribution
// (mean=0, std=1). Uses the Box-Muller transform.
func Randn(shape Shape) *Tensor {
	t := Zeros(shape)
	fillNormal(t.data, 1)
	return t
}

// XavierNormal creates a weight tensor initialized from N(0, 2/(fanIn+fanOut)).
// This is the Glorot variance-scaling scheme for layers with symmetric
// activations.
func XavierNormal(shape Shape, fanIn, fanOut int) *Tensor {
	t := Zeros(shape)
	std := float32(math.Sqrt(2.0 / float64(fanIn+fanOut)))
	fillNormal(t.data, std)
	return t
}

// HeNormal creates a weight tensor initialized from N(0, 2/fanIn).
// This is the Kaiming variance-scaling scheme for ReLU layers.
func HeNormal(shape Shape, fanIn int) *Tensor {
	t := Zeros(shape)
	std := float32(math.Sqrt(2.0 / float64(fanIn)))
	fillNormal(t.data, std)
	return t
}

// fillNormal fills data with samples from N(0, std²) via Box-Muller.
func fillNormal(data []float32, std float32) {
	for i := 0; i < len(data); i += 2 {
		u1 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally
		u2 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally
		r := math.Sqrt(-2.0 * math.Log(u1))
		z0 := r * math.Cos(2.0*math.Pi*u2)
		z1 := r * math.Sin(2.0*math.Pi*u2)
		data[i] = std * float32(z0)
		if i+1 < len(data) {
			data[i+1] = std * float32(z1)
		}
	}
}
