package tensor

import (
	"fmt"
	"testing"
)

// assertFloats compares two float32 slices element by element with a
// small tolerance.
func assertFloats(t *testing.T, expected, got []float32, name string) {
	t.Helper()
	if len(expected) != len(got) {
		t.Fatalf("%s: expected %d elements, got %d", name, len(expected), len(got))
	}
	for i := range expected {
		diff := expected[i] - got[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > 1e-5 {
			t.Errorf("%s[%d]: expected %v, got %v", name, i, expected[i], got[i])
		}
	}
}

func assertShape(t *testing.T, expected, got Shape, name string) {
	t.Helper()
	if !expected.Equal(got) {
		t.Errorf("%s: expected shape %v, got %v", name, expected, got)
	}
}

// ones is a test helper for seeding backward passes.
func ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Addition Tests

func TestAddElementwise(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	b := MustFromSlice([]float32{10, 20, 30, 40}, Shape{2, 2})

	c, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	assertShape(t, Shape{2, 2}, c.Shape(), "Add shape")
	assertFloats(t, []float32{11, 22, 33, 44}, c.Data(), "Add")
}

func TestAddScalarBroadcast(t *testing.T) {
	v := MustFromSlice([]float32{1, 2, 3}, Shape{3})
	s := MustFromSlice([]float32{5}, Shape{1})

	// Scalar on the right.
	c, err := Add(v, s)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	assertShape(t, Shape{3}, c.Shape(), "scalar right shape")
	assertFloats(t, []float32{6, 7, 8}, c.Data(), "scalar right")

	// Scalar on the left.
	c, err = Add(s, v)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	assertShape(t, Shape{3}, c.Shape(), "scalar left shape")
	assertFloats(t, []float32{6, 7, 8}, c.Data(), "scalar left")
}

func TestAddRowBroadcast(t *testing.T) {
	row := MustFromSlice([]float32{10, 20, 30}, Shape{3})
	m := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	// Row vector on the right.
	c, err := Add(m, row)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	assertShape(t, Shape{2, 3}, c.Shape(), "row right shape")
	assertFloats(t, []float32{11, 22, 33, 14, 25, 36}, c.Data(), "row right")

	// Row vector on the left.
	c, err = Add(row, m)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	assertShape(t, Shape{2, 3}, c.Shape(), "row left shape")
	assertFloats(t, []float32{11, 22, 33, 14, 25, 36}, c.Data(), "row left")
}

func TestAddIncompatibleShapes(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3}, Shape{3})
	b := MustFromSlice([]float32{1, 2, 3, 4}, Shape{4})

	if _, err := Add(a, b); err == nil {
		t.Fatal("Add: expected error for incompatible shapes")
	}
}

func TestAddBackwardRowBroadcast(t *testing.T) {
	// Gradient of the row vector must sum over the broadcast rows.
	row := MustFromSlice([]float32{10, 20, 30}, Shape{3}).RequireGrad()
	m := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}).RequireGrad()

	c, err := Add(m, row)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	grads, err := c.Op().Backward(ones(Shape{2, 3}))
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	assertShape(t, Shape{2, 3}, grads[0].Shape(), "matrix grad shape")
	assertFloats(t, []float32{1, 1, 1, 1, 1, 1}, grads[0].Data(), "matrix grad")
	assertShape(t, Shape{3}, grads[1].Shape(), "row grad shape")
	assertFloats(t, []float32{2, 2, 2}, grads[1].Data(), "row grad")
}

func TestAddBackwardScalar(t *testing.T) {
	s := MustFromSlice([]float32{5}, Shape{1}).RequireGrad()
	v := MustFromSlice([]float32{1, 2, 3}, Shape{3}).RequireGrad()

	c, err := Add(s, v)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	grads, err := c.Op().Backward(ones(Shape{3}))
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	assertFloats(t, []float32{3}, grads[0].Data(), "scalar grad")
	assertFloats(t, []float32{1, 1, 1}, grads[1].Data(), "vector grad")
}

// Subtraction Tests

func TestSub(t *testing.T) {
	a := MustFromSlice([]float32{10, 20, 30}, Shape{3})
	b := MustFromSlice([]float32{1, 2, 3}, Shape{3})

	c, err := Sub(a, b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	assertFloats(t, []float32{9, 18, 27}, c.Data(), "Sub")
}

func TestSubScalar(t *testing.T) {
	v := MustFromSlice([]float32{10, 20, 30}, Shape{3})
	s := MustFromSlice([]float32{1}, Shape{1})

	c, err := Sub(v, s)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	assertFloats(t, []float32{9, 19, 29}, c.Data(), "v - s")

	c, err = Sub(s, v)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	assertFloats(t, []float32{-9, -19, -29}, c.Data(), "s - v")
}

func TestSubBackwardNegatesRight(t *testing.T) {
	a := MustFromSlice([]float32{10, 20}, Shape{2}).RequireGrad()
	b := MustFromSlice([]float32{1, 2}, Shape{2}).RequireGrad()

	c, err := Sub(a, b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}

	grads, err := c.Op().Backward(MustFromSlice([]float32{2, 3}, Shape{2}))
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	assertFloats(t, []float32{2, 3}, grads[0].Data(), "left grad")
	assertFloats(t, []float32{-2, -3}, grads[1].Data(), "right grad")
}

func TestSubRejectsRowBroadcast(t *testing.T) {
	row := MustFromSlice([]float32{1, 2, 3}, Shape{3})
	m := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	if _, err := Sub(m, row); err == nil {
		t.Fatal("Sub: row broadcast must be rejected")
	}
}

// Multiplication Tests

func TestMul(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	b := MustFromSlice([]float32{2, 3, 4, 5}, Shape{2, 2})

	c, err := Mul(a, b)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	assertFloats(t, []float32{2, 6, 12, 20}, c.Data(), "Mul")
}

func TestMulScalar(t *testing.T) {
	v := MustFromSlice([]float32{1, 2, 3}, Shape{3})
	s := MustFromSlice([]float32{2}, Shape{1})

	c, err := Mul(v, s)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	assertFloats(t, []float32{2, 4, 6}, c.Data(), "Mul scalar")
}

func TestMulRejectsRowBroadcast(t *testing.T) {
	// Only Add carries the row-broadcast contract.
	row := MustFromSlice([]float32{1, 2, 3}, Shape{3})
	m := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	if _, err := Mul(m, row); err == nil {
		t.Fatal("Mul: row broadcast must be rejected")
	}
	if _, err := Mul(row, m); err == nil {
		t.Fatal("Mul: row broadcast must be rejected")
	}
}

func TestMulBackward(t *testing.T) {
	a := MustFromSlice([]float32{2, 3}, Shape{2}).RequireGrad()
	b := MustFromSlice([]float32{5, 7}, Shape{2}).RequireGrad()

	c, err := Mul(a, b)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}

	grads, err := c.Op().Backward(ones(Shape{2}))
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	assertFloats(t, []float32{5, 7}, grads[0].Data(), "grad a = b")
	assertFloats(t, []float32{2, 3}, grads[1].Data(), "grad b = a")
}

func TestMulBackwardScalar(t *testing.T) {
	v := MustFromSlice([]float32{1, 2, 3}, Shape{3}).RequireGrad()
	s := MustFromSlice([]float32{2}, Shape{1}).RequireGrad()

	c, err := Mul(v, s)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}

	grads, err := c.Op().Backward(ones(Shape{3}))
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	assertFloats(t, []float32{2, 2, 2}, grads[0].Data(), "grad v = s broadcast")
	// Scalar gradient sums grad * v over all elements: 1+2+3.
	assertFloats(t, []float32{6}, grads[1].Data(), "grad s")
}

// MatMul Tests

func TestMatMul(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	b := MustFromSlice([]float32{5, 6, 7, 8}, Shape{2, 2})

	c, err := MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul: %v", err)
	}

	assertShape(t, Shape{2, 2}, c.Shape(), "MatMul shape")
	assertFloats(t, []float32{19, 22, 43, 50}, c.Data(), "MatMul")
}

func TestMatMulRectangular(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	b := MustFromSlice([]float32{7, 8, 9, 10, 11, 12}, Shape{3, 2})

	c, err := MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul: %v", err)
	}

	assertShape(t, Shape{2, 2}, c.Shape(), "MatMul shape")
	assertFloats(t, []float32{58, 64, 139, 154}, c.Data(), "MatMul")
}

func TestMatMulShapeMismatch(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	b := MustFromSlice([]float32{1, 2, 3}, Shape{3, 1})

	if _, err := MatMul(a, b); err == nil {
		t.Fatal("MatMul: expected error for inner dimension mismatch")
	}
}

func TestMatMulRejectsNon2D(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3}, Shape{3})
	b := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{3, 2})

	if _, err := MatMul(a, b); err == nil {
		t.Fatal("MatMul: expected error for rank-1 operand")
	}
}

func TestMatMulBackward(t *testing.T) {
	// [1 2] @ [3; 4] = [11]
	a := MustFromSlice([]float32{1, 2}, Shape{1, 2}).RequireGrad()
	b := MustFromSlice([]float32{3, 4}, Shape{2, 1}).RequireGrad()

	c, err := MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul: %v", err)
	}
	assertFloats(t, []float32{11}, c.Data(), "forward")

	grads, err := c.Op().Backward(ones(Shape{1, 1}))
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	// grad_a = grad @ b^T = [3 4], grad_b = a^T @ grad = [1; 2]
	assertShape(t, Shape{1, 2}, grads[0].Shape(), "grad a shape")
	assertFloats(t, []float32{3, 4}, grads[0].Data(), "grad a")
	assertShape(t, Shape{2, 1}, grads[1].Shape(), "grad b shape")
	assertFloats(t, []float32{1, 2}, grads[1].Data(), "grad b")
}

// Transpose Tests

func TestTranspose(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	c, err := Transpose(a)
	if err != nil {
		t.Fatalf("Transpose: %v", err)
	}

	assertShape(t, Shape{3, 2}, c.Shape(), "Transpose shape")
	assertFloats(t, []float32{1, 4, 2, 5, 3, 6}, c.Data(), "Transpose")
}

func TestTransposeBackward(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}).RequireGrad()

	c, err := Transpose(a)
	if err != nil {
		t.Fatalf("Transpose: %v", err)
	}

	grad := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{3, 2})
	grads, err := c.Op().Backward(grad)
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	assertShape(t, Shape{2, 3}, grads[0].Shape(), "grad shape")
	assertFloats(t, []float32{1, 3, 5, 2, 4, 6}, grads[0].Data(), "grad")
}

func TestTransposeRejectsNon2D(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3}, Shape{3})
	if _, err := Transpose(a); err == nil {
		t.Fatal("Transpose: expected error for rank-1 tensor")
	}
}

// Reduction Tests

func TestSum(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}).RequireGrad()

	s := Sum(a)
	assertShape(t, Shape{1}, s.Shape(), "Sum shape")
	assertFloats(t, []float32{10}, s.Data(), "Sum")

	grads, err := s.Op().Backward(MustFromSlice([]float32{2}, Shape{1}))
	if err != nil {
		t.Fatalf("backward: %v", err)
	}
	assertFloats(t, []float32{2, 2, 2, 2}, grads[0].Data(), "Sum grad")
}

func TestMean(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}).RequireGrad()

	m := Mean(a)
	assertShape(t, Shape{1}, m.Shape(), "Mean shape")
	assertFloats(t, []float32{2.5}, m.Data(), "Mean")

	grads, err := m.Op().Backward(ones(Shape{1}))
	if err != nil {
		t.Fatalf("backward: %v", err)
	}
	assertFloats(t, []float32{0.25, 0.25, 0.25, 0.25}, grads[0].Data(), "Mean grad")
}

// Reshape Tests

func TestReshape(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	r, err := Reshape(a, Shape{3, 2})
	if err != nil {
		t.Fatalf("Reshape: %v", err)
	}

	assertShape(t, Shape{3, 2}, r.Shape(), "Reshape shape")
	assertFloats(t, []float32{1, 2, 3, 4, 5, 6}, r.Data(), "Reshape data")

	// Metadata-only: the buffer is shared with the source.
	a.Data()[0] = 42
	if r.Data()[0] != 42 {
		t.Error("Reshape: expected shared buffer")
	}
}

func TestReshapeCountMismatch(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if _, err := Reshape(a, Shape{3, 2}); err == nil {
		t.Fatal("Reshape: expected error for element count mismatch")
	}
}

func TestReshapeBackward(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}).RequireGrad()

	r, err := Reshape(a, Shape{6})
	if err != nil {
		t.Fatalf("Reshape: %v", err)
	}

	grad := MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{6})
	grads, err := r.Op().Backward(grad)
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	assertShape(t, Shape{2, 3}, grads[0].Shape(), "grad shape")
	assertFloats(t, []float32{1, 2, 3, 4, 5, 6}, grads[0].Data(), "grad data")
}

// ReLU Tests

func TestReLU(t *testing.T) {
	a := MustFromSlice([]float32{-2, -0.5, 0, 0.5, 2}, Shape{5})

	c := ReLU(a)
	assertFloats(t, []float32{0, 0, 0, 0.5, 2}, c.Data(), "ReLU")
}

func TestReLUBackwardMask(t *testing.T) {
	a := MustFromSlice([]float32{-1, 0, 2}, Shape{3}).RequireGrad()

	c := ReLU(a)
	grads, err := c.Op().Backward(MustFromSlice([]float32{10, 10, 10}, Shape{3}))
	if err != nil {
		t.Fatalf("backward: %v", err)
	}

	// Gradient passes only where the input was strictly positive.
	assertFloats(t, []float32{0, 0, 10}, grads[0].Data(), "ReLU grad")
}

// Graph-recording Tests

func TestOpAttachedOnlyWhenTracking(t *testing.T) {
	a := MustFromSlice([]float32{1, 2}, Shape{2})
	b := MustFromSlice([]float32{3, 4}, Shape{2})

	c, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if c.Op() != nil {
		t.Error("untracked inputs must not record an operation")
	}
	if c.RequiresGrad() {
		t.Error("untracked result must not require gradients")
	}

	a.RequireGrad()
	c, err = Add(a, b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if c.Op() == nil {
		t.Fatal("tracked input must record an operation")
	}
	if c.Op().Name() != "add" {
		t.Errorf("expected op name %q, got %q", "add", c.Op().Name())
	}
	if len(c.Op().Inputs()) != 2 {
		t.Errorf("expected 2 inputs, got %d", len(c.Op().Inputs()))
	}
}

func TestAccumulate(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3}, Shape{3})
	b := MustFromSlice([]float32{10, 20, 30}, Shape{3})

	c := Accumulate(a, b)
	assertFloats(t, []float32{11, 22, 33}, c.Data(), "Accumulate")
	if c.Op() != nil {
		t.Error("Accumulate results are never tracked")
	}
}

func TestOnesLike(t *testing.T) {
	a := MustFromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})

	o := OnesLike(a)
	assertShape(t, Shape{2, 2}, o.Shape(), "OnesLike shape")
	assertFloats(t, []float32{1, 1, 1, 1}, o.Data(), "OnesLike")
}

// Broadcast priority: a single-element rank-2 operand against another
// rank-2 operand of the same element count is elementwise, not scalar.
func TestBroadcastPriorityElementwiseFirst(t *testing.T) {
	a := MustFromSlice([]float32{3}, Shape{1, 1})
	b := MustFromSlice([]float32{4}, Shape{1, 1})

	kind, shape, err := classifyBroadcast("add", a, b, true)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if kind != broadcastNone {
		t.Errorf("expected elementwise classification, got %v", kind)
	}
	assertShape(t, Shape{1, 1}, shape, fmt.Sprintf("shape for kind %d", kind))
}
