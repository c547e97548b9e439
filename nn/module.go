// Copyright 2025 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks composed from the
// core tensor operations. Modules add no numeric machinery of their
// own: every forward pass is a chain of public tensor ops, so gradients
// come entirely from the autodiff engine.
package nn

import (
	"fmt"

	"github.com/flint-ml/flint/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(2, 8),
//	    nn.NewReLU(),
//	    nn.NewLinear(8, 1),
//	)
type Module interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*tensor.Tensor
}

// Linear is a fully-connected layer: output = input @ weight + bias.
//
// Weight has shape [inFeatures, outFeatures] and is Xavier-initialized;
// bias has shape [outFeatures] and starts at zero. The bias addition
// uses the row-vector broadcast, so input must be [batch, inFeatures].
type Linear struct {
	Weight *tensor.Tensor
	Bias   *tensor.Tensor
}

// NewLinear creates a fully-connected layer.
func NewLinear(inFeatures, outFeatures int) *Linear {
	return &Linear{
		Weight: tensor.XavierNormal(tensor.Shape{inFeatures, outFeatures}, inFeatures, outFeatures).RequireGrad(),
		Bias:   tensor.Zeros(tensor.Shape{outFeatures}).RequireGrad(),
	}
}

// Forward computes input @ weight + bias.
func (l *Linear) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := tensor.MatMul(input, l.Weight)
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	out, err = tensor.Add(out, l.Bias)
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	return out, nil
}

// Parameters returns the weight and bias.
func (l *Linear) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{l.Weight, l.Bias}
}

// ReLU is the rectified linear activation module.
type ReLU struct{}

// NewReLU creates a ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies max(0, x) elementwise.
func (r *ReLU) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.ReLU(input), nil
}

// Parameters returns an empty slice; ReLU has no trainable state.
func (r *ReLU) Parameters() []*tensor.Tensor {
	return nil
}

// Sequential chains modules, feeding each output into the next module.
type Sequential struct {
	modules []Module
}

// NewSequential creates a sequential container from the given modules.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{modules: modules}
}

// Forward runs the input through every module in order.
func (s *Sequential) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out := input
	for i, m := range s.modules {
		var err error
		out, err = m.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("sequential: module %d: %w", i, err)
		}
	}
	return out, nil
}

// Parameters returns the concatenated parameters of all modules.
func (s *Sequential) Parameters() []*tensor.Tensor {
	var params []*tensor.Tensor
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// MSELoss computes the mean squared error between prediction and
// target: mean((pred - target)²).
func MSELoss(pred, target *tensor.Tensor) (*tensor.Tensor, error) {
	diff, err := tensor.Sub(pred, target)
	if err != nil {
		return nil, fmt.Errorf("mse: %w", err)
	}
	sq, err := tensor.Mul(diff, diff)
	if err != nil {
		return nil, fmt.Errorf("mse: %w", err)
	}
	return tensor.Mean(sq), nil
}
