// Copyright 2025 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package serialization saves and restores a model's parameters as a
// flat list. The format is deliberately minimal: an ordered JSON array
// of shape/data pairs, matching the order of Module.Parameters().
package serialization

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flint-ml/flint/tensor"
)

// parameter is one entry of the flat list.
type parameter struct {
	Shape tensor.Shape `json:"shape"`
	Data  []float32    `json:"data"`
}

// checkpoint is the on-disk document.
type checkpoint struct {
	Params []parameter `json:"params"`
}

// Save writes the parameters to path as a flat JSON list.
func Save(path string, params []*tensor.Tensor) error {
	doc := checkpoint{Params: make([]parameter, len(params))}
	for i, p := range params {
		doc.Params[i] = parameter{
			Shape: p.Shape().Clone(),
			Data:  p.ToArray(),
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialization: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("serialization: write %s: %w", path, err)
	}
	return nil
}

// Load reads a flat parameter list from path into the given parameters,
// which must match the saved list in count and shapes.
func Load(path string, params []*tensor.Tensor) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("serialization: read %s: %w", path, err)
	}

	var doc checkpoint
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("serialization: unmarshal %s: %w", path, err)
	}

	if len(doc.Params) != len(params) {
		return fmt.Errorf("serialization: checkpoint has %d parameters, model has %d", len(doc.Params), len(params))
	}
	for i, p := range params {
		saved := doc.Params[i]
		if !p.Shape().Equal(saved.Shape) {
			return fmt.Errorf("serialization: parameter %d shape mismatch: checkpoint %v, model %v", i, saved.Shape, p.Shape())
		}
		copy(p.Data(), saved.Data)
	}
	return nil
}
