package tensor

import (
	"fmt"

	"github.com/flint-ml/flint/internal/backend"
)

// Add performs element-wise addition with broadcasting: result = a + b.
//
// Supported broadcast cases, in priority order: identical rank and
// element count, single-element scalar on either side, and a rank-1 row
// vector against a rank-2 matrix on either side.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outputGrad
//   - d(a+b)/db = 1, so grad_b = outputGrad
//
// Gradients are summed along the broadcast axis so they match the input
// shapes.
func Add(a, b *Tensor) (*Tensor, error) {
	kind, outShape, err := classifyBroadcast("add", a, b, true)
	if err != nil {
		return nil, err
	}

	out := Zeros(outShape)
	switch kind {
	case broadcastNone:
		backend.Base().Add(out.data, a.data, b.data)
	case broadcastScalarLeft:
		s := a.data[0]
		for i, v := range b.data {
			out.data[i] = s + v
		}
	case broadcastScalarRight:
		s := b.data[0]
		for i, v := range a.data {
			out.data[i] = v + s
		}
	case broadcastRowLeft:
		rows, cols := b.shape[0], b.shape[1]
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out.data[i*cols+j] = a.data[j] + b.data[i*cols+j]
			}
		}
	case broadcastRowRight:
		rows, cols := a.shape[0], a.shape[1]
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out.data[i*cols+j] = a.data[i*cols+j] + b.data[j]
			}
		}
	}

	op := &Operation{
		name:   "add",
		inputs: []*Tensor{a, b},
		backward: func(grad *Tensor) ([]*Tensor, error) {
			gradA := reduceGrad(grad, a, kind, true)
			gradB := reduceGrad(grad, b, kind, false)
			return []*Tensor{gradA, gradB}, nil
		},
	}
	return newResult(out.data, outShape, op), nil
}

// Sub performs element-wise subtraction: result = a - b.
// Supports the elementwise and scalar broadcast cases only; the row
// broadcast is an addition-only contract.
//
// Backward pass: identity gradient to the left input, negated to the
// right.
func Sub(a, b *Tensor) (*Tensor, error) {
	kind, outShape, err := classifyBroadcast("sub", a, b, false)
	if err != nil {
		return nil, err
	}

	out := Zeros(outShape)
	switch kind {
	case broadcastNone:
		for i := range out.data {
			out.data[i] = a.data[i] - b.data[i]
		}
	case broadcastScalarLeft:
		s := a.data[0]
		for i, v := range b.data {
			out.data[i] = s - v
		}
	case broadcastScalarRight:
		s := b.data[0]
		for i, v := range a.data {
			out.data[i] = v - s
		}
	}

	op := &Operation{
		name:   "sub",
		inputs: []*Tensor{a, b},
		backward: func(grad *Tensor) ([]*Tensor, error) {
			gradA := reduceGrad(grad, a, kind, true)
			gradB := reduceGrad(grad, b, kind, false)
			for i := range gradB.data {
				gradB.data[i] = -gradB.data[i]
			}
			return []*Tensor{gradA, gradB}, nil
		},
	}
	return newResult(out.data, outShape, op), nil
}

// Mul performs element-wise multiplication: result = a * b.
//
// Mul supports fewer broadcast cases than Add on purpose: the rank-1 x
// rank-2 row broadcast is rejected so shape bugs in layer code fail
// fast instead of being reinterpreted.
//
// Backward pass:
//   - d(a*b)/da = b, so grad_a = outputGrad * b
//   - d(a*b)/db = a, so grad_b = outputGrad * a
func Mul(a, b *Tensor) (*Tensor, error) {
	kind, outShape, err := classifyBroadcast("mul", a, b, false)
	if err != nil {
		return nil, err
	}

	out := Zeros(outShape)
	switch kind {
	case broadcastNone:
		backend.Base().Mul(out.data, a.data, b.data)
	case broadcastScalarLeft:
		s := a.data[0]
		for i, v := range b.data {
			out.data[i] = s * v
		}
	case broadcastScalarRight:
		s := b.data[0]
		for i, v := range a.data {
			out.data[i] = v * s
		}
	}

	op := &Operation{
		name:   "mul",
		inputs: []*Tensor{a, b},
		backward: func(grad *Tensor) ([]*Tensor, error) {
			gradA := mulGrad(grad, b, a, kind == broadcastScalarLeft)
			gradB := mulGrad(grad, a, b, kind == broadcastScalarRight)
			return []*Tensor{gradA, gradB}, nil
		},
	}
	return newResult(out.data, outShape, op), nil
}

// mulGrad computes outputGrad * other, reduced onto the operand's shape
// when the operand was a broadcast scalar.
func mulGrad(grad, other, operand *Tensor, operandIsScalar bool) *Tensor {
	out := Zeros(operand.shape)
	if operandIsScalar {
		var sum float32
		if other.NumElements() == 1 {
			sum = grad.data[0] * other.data[0]
		} else {
			for i, g := range grad.data {
				sum += g * other.data[i]
			}
		}
		out.data[0] = sum
		return out
	}
	if other.NumElements() == 1 {
		s := other.data[0]
		for i, g := range grad.data {
			out.data[i] = g * s
		}
		return out
	}
	backend.Base().Mul(out.data, grad.data, other.data)
	return out
}

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N). No other ranks are
// accepted. The dispatcher is consulted for every multiply, so results
// with >= 1024 elements transparently run on the accelerated
// synchronous backend when it is loaded.
//
// Backward pass:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
func MatMul(a, b *Tensor) (*Tensor, error) {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		return nil, fmt.Errorf("matmul: only 2D tensors supported, got %dD and %dD", len(a.shape), len(b.shape))
	}

	m, k := a.shape[0], a.shape[1]
	kAlt, n := b.shape[0], b.shape[1]
	if k != kAlt {
		return nil, fmt.Errorf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n)
	}

	out := Zeros(Shape{m, n})
	backend.MatMulKernel(m * n).MatMul(out.data, a.data, b.data, m, k, n)

	op := &Operation{
		name:   "matmul",
		inputs: []*Tensor{a, b},
		backward: func(grad *Tensor) ([]*Tensor, error) {
			// grad_a = outputGrad @ b^T
			bT := transposeData(b)
			gradA := Zeros(Shape{m, k})
			backend.MatMulKernel(m * k).MatMul(gradA.data, grad.data, bT.data, m, n, k)
			bT.Release()

			// grad_b = a^T @ outputGrad
			aT := transposeData(a)
			gradB := Zeros(Shape{k, n})
			backend.MatMulKernel(k * n).MatMul(gradB.data, aT.data, grad.data, k, m, n)
			aT.Release()

			return []*Tensor{gradA, gradB}, nil
		},
	}
	return newResult(out.data, Shape{m, n}, op), nil
}

// Transpose returns the transposed matrix. 2D tensors only.
//
// Backward pass: transpose of the incoming gradient.
func Transpose(t *Tensor) (*Tensor, error) {
	if len(t.shape) != 2 {
		return nil, fmt.Errorf("transpose: only 2D tensors supported, got %dD", len(t.shape))
	}

	out := transposeData(t)
	op := &Operation{
		name:   "transpose",
		inputs: []*Tensor{t},
		backward: func(grad *Tensor) ([]*Tensor, error) {
			return []*Tensor{transposeData(grad)}, nil
		},
	}
	return newResult(out.data, out.shape, op), nil
}

// transposeData produces an untracked transposed copy of a 2D tensor.
func transposeData(t *Tensor) *Tensor {
	rows, cols := t.shape[0], t.shape[1]
	out := Zeros(Shape{cols, rows})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[j*rows+i] = t.data[i*cols+j]
		}
	}
	return out
}

// Sum reduces a tensor to a single-element tensor holding the sum of
// all elements.
//
// Backward pass: the incoming gradient broadcast to every element.
func Sum(t *Tensor) *Tensor {
	out := Zeros(Shape{1})
	var sum float32
	for _, v := range t.data {
		sum += v
	}
	out.data[0] = sum

	op := &Operation{
		name:   "sum",
		inputs: []*Tensor{t},
		backward: func(grad *Tensor) ([]*Tensor, error) {
			return []*Tensor{Full(t.shape, grad.data[0])}, nil
		},
	}
	return newResult(out.data, Shape{1}, op)
}

// Mean reduces a tensor to a single-element tensor holding the mean of
// all elements.
//
// Backward pass: Sum's gradient scaled by 1/elementCount.
func Mean(t *Tensor) *Tensor {
	n := t.NumElements()
	out := Zeros(Shape{1})
	var sum float32
	for _, v := range t.data {
		sum += v
	}
	out.data[0] = sum / float32(n)

	op := &Operation{
		name:   "mean",
		inputs: []*Tensor{t},
		backward: func(grad *Tensor) ([]*Tensor, error) {
			return []*Tensor{Full(t.shape, grad.data[0]/float32(n))}, nil
		},
	}
	return newResult(out.data, Shape{1}, op)
}

// Reshape returns a tensor with the same data viewed under a new shape.
// Pure metadata change; the element counts must match exactly.
//
// Backward pass: the incoming gradient viewed under the original shape.
func Reshape(t *Tensor, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	if shape.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("reshape: cannot view %v (%d elements) as %v (%d elements)",
			t.shape, t.NumElements(), shape, shape.NumElements())
	}

	orig := t.shape.Clone()
	op := &Operation{
		name:   "reshape",
		inputs: []*Tensor{t},
		backward: func(grad *Tensor) ([]*Tensor, error) {
			// Copied, not aliased: every gradient owns its buffer so the
			// engine can release superseded ones during accumulation.
			return []*Tensor{cloneWithShape(grad, orig)}, nil
		},
	}
	// Shares the buffer: reshape never copies.
	return newResult(t.data, shape, op), nil
}

// ReLU applies the rectified linear activation: result = max(0, x).
//
// Backward pass: the gradient passes through where the input was
// positive and is zero elsewhere.
func ReLU(t *Tensor) *Tensor {
	out := Zeros(t.shape)
	backend.Base().ReLU(out.data, t.data)

	op := &Operation{
		name:   "relu",
		inputs: []*Tensor{t},
		backward: func(grad *Tensor) ([]*Tensor, error) {
			g := Zeros(t.shape)
			for i, v := range t.data {
				if v > 0 {
					g.data[i] = grad.data[i]
				}
			}
			return []*Tensor{g}, nil
		},
	}
	return newResult(out.data, t.shape, op)
}

// OnesLike returns an untracked all-ones tensor with t's shape.
// Used by the autodiff engine to seed the root gradient.
func OnesLike(t *Tensor) *Tensor {
	return Full(t.shape, 1)
}

// Accumulate returns the untracked elementwise sum of two gradients
// with identical element counts. Used by the autodiff engine for graph
// fan-out.
func Accumulate(a, b *Tensor) *Tensor {
	out := Zeros(a.shape)
	backend.Base().Add(out.data, a.data, b.data)
	return out
}
