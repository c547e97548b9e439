// Package autodiff implements reverse-mode automatic differentiation
// over the dynamically-built computation graph.
//
// Operations record their inputs and a local-gradient function on the
// tensors they produce; Backward walks that graph once, in reverse
// topological order, and returns the accumulated gradient for every
// reachable gradient-tracking tensor.
//
// Usage:
//
//	x := tensor.MustFromSlice([]float32{2}, tensor.Shape{1}).RequireGrad()
//	y, _ := tensor.Mul(x, x)
//	z, _ := tensor.Add(y, y)
//	grads, _ := autodiff.Backward(z)
//	fmt.Println(grads.Grad(x).Data()) // dz/dx = 4x = [8]
package autodiff

import (
	"fmt"

	"github.com/flint-ml/flint/internal/tensor"
)

// Gradients maps tensor identity to its accumulated gradient for one
// backward pass. Only tensors that require gradients and were reached
// by the reverse traversal appear.
//
// The map is the sole owner of gradient state: tensors never cache
// gradients. Callers read the gradients they need and call Reset before
// reusing the participating tensors in a new graph.
type Gradients map[*tensor.Tensor]*tensor.Tensor

// Grad returns the accumulated gradient for t, or nil if t was not
// reached or does not require gradients.
func (g Gradients) Grad(t *tensor.Tensor) *tensor.Tensor {
	return g[t]
}

// Reset returns every gradient buffer to the pool and empties the map.
func (g Gradients) Reset() {
	for t, grad := range g {
		grad.Release()
		delete(g, t)
	}
}

// Zero zeroes every gradient buffer in place, keeping the entries.
// Useful for schemes that accumulate gradients across micro-batches.
func (g Gradients) Zero() {
	for _, grad := range g {
		data := grad.Data()
		for i := range data {
			data[i] = 0
		}
	}
}

// Backward computes gradients for every gradient-tracking tensor
// reachable from root.
//
// Algorithm:
//  1. Depth-first post-order traversal from root yields a topological
//     order of the graph.
//  2. The root's gradient is seeded with ones.
//  3. The order is walked in reverse; each operation record's
//     local-gradient function receives the node's accumulated gradient
//     and its results are added elementwise to the inputs' entries
//     (fan-out accumulation).
//
// Leaves (tensors without an operation record) receive map entries but
// are never traversed further. Backward fails if root does not require
// gradients.
func Backward(root *tensor.Tensor) (Gradients, error) {
	if !root.RequiresGrad() {
		return nil, fmt.Errorf("backward: root tensor does not require gradients")
	}

	order := topoOrder(root)

	grads := make(Gradients)
	grads[root] = tensor.OnesLike(root)

	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]
		op := node.Op()
		if op == nil {
			continue // Leaf: gradient map entry only
		}

		outGrad := grads[node]
		if outGrad == nil {
			continue // No gradient flowed to this node
		}

		inputGrads, err := op.Backward(outGrad)
		if err != nil {
			return nil, fmt.Errorf("backward: %s: %w", op.Name(), err)
		}

		for j, in := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			inGrad := inputGrads[j]
			if !in.RequiresGrad() {
				inGrad.Release()
				continue
			}
			if existing, ok := grads[in]; ok {
				sum := tensor.Accumulate(existing, inGrad)
				existing.Release()
				inGrad.Release()
				grads[in] = sum
			} else {
				grads[in] = inGrad
			}
		}
	}

	return grads, nil
}

// topoOrder returns the graph nodes reachable from root in depth-first
// post-order, so dependencies always precede their consumers.
func topoOrder(root *tensor.Tensor) []*tensor.Tensor {
	var order []*tensor.Tensor
	visited := make(map[*tensor.Tensor]bool)

	var visit func(t *tensor.Tensor)
	visit = func(t *tensor.Tensor) {
		if t == nil || visited[t] {
			return
		}
		visited[t] = true
		if op := t.Op(); op != nil {
			for _, in := range op.Inputs() {
				visit(in)
			}
		}
		order = append(order, t)
	}
	visit(root)

	return order
}
