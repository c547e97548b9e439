// Copyright 2025 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Command flint trains a small network on the XOR problem, exercising
// the tensor ops, autodiff engine, buffer pool and backend dispatcher
// end to end.
package main

import (
	"flag"
	"log"

	"github.com/flint-ml/flint/autodiff"
	"github.com/flint-ml/flint/backend"
	"github.com/flint-ml/flint/nn"
	"github.com/flint-ml/flint/optim"
	"github.com/flint-ml/flint/tensor"
)

func main() {
	epochs := flag.Int("epochs", 2000, "training epochs")
	lr := flag.Float64("lr", 0.1, "learning rate")
	useGPU := flag.Bool("gpu", false, "also demonstrate the explicit GPU path")
	flag.Parse()

	if backend.LoadAcceleration() {
		log.Println("accelerated synchronous backend loaded")
	} else {
		log.Println("running on the in-process kernel only")
	}

	inputs := tensor.MustFromSlice([]float32{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
	}, tensor.Shape{4, 2})
	targets := tensor.MustFromSlice([]float32{0, 1, 1, 0}, tensor.Shape{4, 1})

	model := nn.NewSequential(
		nn.NewLinear(2, 8),
		nn.NewReLU(),
		nn.NewLinear(8, 1),
	)
	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: float32(*lr), Momentum: 0.9})

	for epoch := 1; epoch <= *epochs; epoch++ {
		pred, err := model.Forward(inputs)
		if err != nil {
			log.Fatalf("forward: %v", err)
		}
		loss, err := nn.MSELoss(pred, targets)
		if err != nil {
			log.Fatalf("loss: %v", err)
		}

		grads, err := autodiff.Backward(loss)
		if err != nil {
			log.Fatalf("backward: %v", err)
		}
		opt.Step(grads)
		grads.Reset()

		if epoch%500 == 0 {
			v, _ := loss.Item()
			log.Printf("epoch %4d  loss %.6f", epoch, v)
		}
	}

	pred, err := model.Forward(inputs)
	if err != nil {
		log.Fatalf("forward: %v", err)
	}
	log.Printf("predictions: %v", pred.ToArray())

	stats := tensor.GetPoolStats()
	log.Printf("pool: %d buffers (%d in use, %d available)",
		stats.TotalBuffers, stats.InUse, stats.Available)

	if *useGPU {
		if !backend.LoadGPUAcceleration() {
			log.Println("GPU backend unavailable; skipping device demo")
			return
		}
		gpu, err := backend.GetGPU()
		if err != nil {
			log.Fatalf("gpu: %v", err)
		}
		a := tensor.Rand(tensor.Shape{64, 64})
		b := tensor.Rand(tensor.Shape{64, 64})
		out, err := gpu.MatMul(a.Data(), b.Data(), 64, 64, 64)
		if err != nil {
			log.Fatalf("gpu matmul: %v", err)
		}
		log.Printf("device matmul returned %d elements", len(out))
	}
}
