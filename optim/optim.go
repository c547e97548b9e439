// Copyright 2025 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim implements parameter-update algorithms over the
// external gradient map produced by the autodiff engine.
//
// Optimizers mutate parameter buffers in place between graph builds;
// parameters are graph leaves and are never updated while a recorded
// graph is still live.
package optim

import (
	"math"

	"github.com/flint-ml/flint/autodiff"
	"github.com/flint-ml/flint/tensor"
)

// Optimizer is the common interface for parameter-update algorithms.
type Optimizer interface {
	// Step applies one update to every parameter that has an entry in
	// the gradient map. Parameters without gradients are skipped.
	Step(grads autodiff.Gradients)
}

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate.
	Momentum float32 // Momentum coefficient; 0 disables momentum.
}

// SGD is stochastic gradient descent with optional momentum.
type SGD struct {
	params   []*tensor.Tensor
	config   SGDConfig
	velocity [][]float32
}

// NewSGD creates an SGD optimizer for the given parameters.
//
// Example:
//
//	model := nn.NewLinear(784, 10)
//	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01, Momentum: 0.9})
func NewSGD(params []*tensor.Tensor, config SGDConfig) *SGD {
	velocity := make([][]float32, len(params))
	for i, p := range params {
		velocity[i] = make([]float32, p.NumElements())
	}
	return &SGD{params: params, config: config, velocity: velocity}
}

// Step applies v = momentum*v + grad; param -= lr*v.
func (s *SGD) Step(grads autodiff.Gradients) {
	for i, p := range s.params {
		g := grads.Grad(p)
		if g == nil {
			continue
		}
		data := p.Data()
		gData := g.Data()
		v := s.velocity[i]
		for j := range data {
			v[j] = s.config.Momentum*v[j] + gData[j]
			data[j] -= s.config.LR * v[j]
		}
	}
}

// AdamConfig contains configuration for the Adam optimizer.
type AdamConfig struct {
	LR      float32    // Learning rate.
	Betas   [2]float32 // Exponential decay rates for moment estimates.
	Epsilon float32    // Numerical stability term.
}

// DefaultAdamConfig returns the customary Adam hyperparameters.
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{
		LR:      0.001,
		Betas:   [2]float32{0.9, 0.999},
		Epsilon: 1e-8,
	}
}

// Adam is the adaptive moment estimation optimizer with bias
// correction.
type Adam struct {
	params []*tensor.Tensor
	config AdamConfig
	m      [][]float32 // First moment estimates.
	v      [][]float32 // Second moment estimates.
	t      int         // Step count for bias correction.
}

// NewAdam creates an Adam optimizer for the given parameters.
func NewAdam(params []*tensor.Tensor, config AdamConfig) *Adam {
	m := make([][]float32, len(params))
	v := make([][]float32, len(params))
	for i, p := range params {
		m[i] = make([]float32, p.NumElements())
		v[i] = make([]float32, p.NumElements())
	}
	return &Adam{params: params, config: config, m: m, v: v}
}

// Step applies one bias-corrected Adam update.
func (a *Adam) Step(grads autodiff.Gradients) {
	a.t++
	beta1, beta2 := a.config.Betas[0], a.config.Betas[1]
	correction1 := 1 - float32(math.Pow(float64(beta1), float64(a.t)))
	correction2 := 1 - float32(math.Pow(float64(beta2), float64(a.t)))

	for i, p := range a.params {
		g := grads.Grad(p)
		if g == nil {
			continue
		}
		data := p.Data()
		gData := g.Data()
		m, v := a.m[i], a.v[i]
		for j := range data {
			m[j] = beta1*m[j] + (1-beta1)*gData[j]
			v[j] = beta2*v[j] + (1-beta2)*gData[j]*gData[j]
			mHat := m[j] / correction1
			vHat := v[j] / correction2
			data[j] -= a.config.LR * mHat / (float32(math.Sqrt(float64(vHat))) + a.config.Epsilon)
		}
	}
}
