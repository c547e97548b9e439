package tensor

import "fmt"

// broadcastKind classifies how two operand shapes combine.
// The library supports exactly four combinations, checked in priority
// order; anything else is a contract violation.
type broadcastKind int

const (
	// broadcastNone: identical rank and element count, elementwise.
	broadcastNone broadcastKind = iota
	// broadcastScalarLeft: left operand is a single-element tensor.
	broadcastScalarLeft
	// broadcastScalarRight: right operand is a single-element tensor.
	broadcastScalarRight
	// broadcastRowLeft: rank-1 left operand broadcast across the rows of
	// a rank-2 right operand. Addition only.
	broadcastRowLeft
	// broadcastRowRight: rank-1 right operand broadcast across the rows
	// of a rank-2 left operand. Addition only.
	broadcastRowRight
)

// classifyBroadcast determines the broadcast case for a binary operation
// and the output shape. allowRow enables the rank-1 x rank-2 row
// broadcast, which only addition supports; Mul and Sub keep the narrower
// contract and fail fast on that combination.
func classifyBroadcast(op string, a, b *Tensor, allowRow bool) (broadcastKind, Shape, error) {
	switch {
	case len(a.shape) == len(b.shape) && a.NumElements() == b.NumElements():
		return broadcastNone, a.shape, nil
	case a.NumElements() == 1:
		return broadcastScalarLeft, b.shape, nil
	case b.NumElements() == 1:
		return broadcastScalarRight, a.shape, nil
	case allowRow && len(a.shape) == 1 && len(b.shape) == 2 && a.shape[0] == b.shape[1]:
		return broadcastRowLeft, b.shape, nil
	case allowRow && len(a.shape) == 2 && len(b.shape) == 1 && b.shape[0] == a.shape[1]:
		return broadcastRowRight, a.shape, nil
	default:
		return 0, nil, fmt.Errorf("%s: shapes %v and %v are not broadcast-compatible", op, a.shape, b.shape)
	}
}

// reduceGrad sums an output gradient back onto an input's shape for the
// broadcast case the forward pass used. For the elementwise case the
// gradient is copied (the input may have a different shape with the same
// element count).
func reduceGrad(grad *Tensor, in *Tensor, kind broadcastKind, left bool) *Tensor {
	broadcast := false
	switch kind {
	case broadcastScalarLeft, broadcastRowLeft:
		broadcast = left
	case broadcastScalarRight, broadcastRowRight:
		broadcast = !left
	}
	if !broadcast {
		return cloneWithShape(grad, in.shape)
	}

	switch kind {
	case broadcastScalarLeft, broadcastScalarRight:
		return sumAllInto(grad, in.shape)
	default:
		return sumRowsInto(grad, in.shape)
	}
}

// cloneWithShape copies grad's data into a fresh untracked tensor of the
// given shape. Element counts must already match.
func cloneWithShape(grad *Tensor, shape Shape) *Tensor {
	out := Zeros(shape)
	copy(out.data, grad.data)
	return out
}

// sumAllInto reduces every element of grad into a single-element tensor
// of the given shape.
func sumAllInto(grad *Tensor, shape Shape) *Tensor {
	out := Zeros(shape)
	var sum float32
	for _, v := range grad.data {
		sum += v
	}
	out.data[0] = sum
	return out
}

// sumRowsInto reduces a [rows, cols] gradient along the leading (row)
// dimension into a rank-1 tensor of the given shape.
func sumRowsInto(grad *Tensor, shape Shape) *Tensor {
	rows, cols := grad.shape[0], grad.shape[1]
	out := Zeros(shape)
	for i := 0; i < rows; i++ {
		row := grad.data[i*cols : (i+1)*cols]
		for j, v := range row {
			out.data[j] += v
		}
	}
	return out
}
