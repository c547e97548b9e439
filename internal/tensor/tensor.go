package tensor

import (
	"fmt"

	"github.com/flint-ml/flint/internal/pool"
)

// Tensor is an immutable float32 value in the computation graph.
//
// A tensor produced by a creation function is a graph leaf (op == nil).
// A tensor produced by an operation on at least one gradient-tracking
// input carries an Operation record linking it to its inputs and the
// local derivative of the operation that produced it.
//
// The data buffer is borrowed from the buffer pool; its length always
// equals shape.NumElements(). Tensors are never mutated after creation —
// gradients live in the external map returned by the autodiff engine,
// never on the tensor itself.
type Tensor struct {
	data         []float32
	shape        Shape
	requiresGrad bool
	op           *Operation
}

// Operation is the graph edge recorded when an operation produces a
// tensor from gradient-tracking inputs.
//
// backward is the local-gradient function: given the gradient of the
// operation's output it returns one gradient tensor per input, in input
// order. An entry may be nil when the corresponding input does not
// require gradients.
type Operation struct {
	name     string
	inputs   []*Tensor
	backward func(grad *Tensor) ([]*Tensor, error)
}

// Name returns the operation kind. Used only for diagnostics.
func (op *Operation) Name() string {
	return op.name
}

// Inputs returns the input tensors of this operation, in argument order.
func (op *Operation) Inputs() []*Tensor {
	return op.inputs
}

// Backward invokes the local-gradient function with the gradient of the
// operation's output.
func (op *Operation) Backward(grad *Tensor) ([]*Tensor, error) {
	return op.backward(grad)
}

// New creates a tensor over an existing buffer without copying.
// The buffer length must equal the shape's element count.
func New(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	return &Tensor{data: data, shape: shape.Clone()}, nil
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into a pooled buffer.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	buf := pool.Acquire(len(data))
	copy(buf, data)
	return &Tensor{data: buf, shape: shape.Clone()}, nil
}

// newResult constructs an operation output. The op record is attached
// only when at least one input requires gradients; otherwise the result
// is an untracked leaf.
func newResult(data []float32, shape Shape, op *Operation) *Tensor {
	t := &Tensor{data: data, shape: shape.Clone()}
	if op == nil {
		return t
	}
	for _, in := range op.inputs {
		if in.requiresGrad {
			t.requiresGrad = true
			t.op = op
			break
		}
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Data returns the tensor's buffer.
// The slice directly accesses the underlying memory (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Op returns the operation record that produced this tensor, or nil for
// a graph leaf.
func (t *Tensor) Op() *Operation {
	return t.op
}

// Item returns the scalar value of a single-element tensor.
func (t *Tensor) Item() (float32, error) {
	if t.NumElements() != 1 {
		return 0, fmt.Errorf("item: tensor with shape %v is not a scalar", t.shape)
	}
	return t.data[0], nil
}

// ToArray returns a copy of the tensor's elements in row-major order.
func (t *Tensor) ToArray() []float32 {
	out := make([]float32, len(t.data))
	copy(out, t.data)
	return out
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) At(indices ...int) float32 {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}

	offset := 0
	strides := t.shape.ComputeStrides()
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * strides[i]
	}
	return t.data[offset]
}

// RequireGrad marks this tensor for gradient computation.
// Subsequent operations involving this tensor will record graph edges.
//
// Returns the tensor itself for method chaining.
//
// Example:
//
//	x := tensor.MustFromSlice([]float32{2}, tensor.Shape{1}).RequireGrad()
//	y, _ := tensor.Mul(x, x)
//	grads, _ := autodiff.Backward(y)
func (t *Tensor) RequireGrad() *Tensor {
	t.requiresGrad = true
	return t
}

// RequiresGrad returns true if this tensor requires gradient computation.
func (t *Tensor) RequiresGrad() bool {
	return t.requiresGrad
}

// Detach returns a new tensor that shares the same data but doesn't
// track gradients. Operations on the detached tensor record no graph
// edges, which stops gradient flow at this point.
func (t *Tensor) Detach() *Tensor {
	return &Tensor{
		data:  t.data, // Share data (zero-copy)
		shape: t.shape.Clone(),
	}
}

// Release returns the tensor's buffer to the pool.
// The tensor must not be used afterwards.
func (t *Tensor) Release() {
	pool.Release(t.data)
	t.data = nil
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v grad=%v", t.shape, t.requiresGrad)
}

// MustFromSlice is FromSlice that panics on shape mismatch.
// Intended for literals in tests and demos.
func MustFromSlice(data []float32, shape Shape) *Tensor {
	t, err := FromSlice(data, shape)
	if err != nil {
		panic(err)
	}
	return t
}
