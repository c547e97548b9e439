// Copyright 2025 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides the public API for the reverse-mode
// backward pass.
//
// Example:
//
//	x := tensor.MustFromSlice([]float32{2}, tensor.Shape{1}).RequireGrad()
//	y, _ := tensor.Mul(x, x)
//	z, _ := tensor.Add(y, y)
//	grads, err := autodiff.Backward(z)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer grads.Reset()
//	fmt.Println(grads.Grad(x).Data()) // [8]
package autodiff

import (
	"github.com/flint-ml/flint/internal/autodiff"
	"github.com/flint-ml/flint/internal/tensor"
)

// Gradients maps tensor identity to accumulated gradient for one
// backward pass. Gradient state lives only here, never on tensors.
type Gradients = autodiff.Gradients

// Backward computes gradients for every gradient-tracking tensor
// reachable from root. Fails if root does not require gradients.
func Backward(root *tensor.Tensor) (Gradients, error) {
	return autodiff.Backward(root)
}
