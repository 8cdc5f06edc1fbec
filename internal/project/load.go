package project

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// LoadProblem reads a problem definition from a JSON project file.
func LoadProblem(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	var p Problem
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("project file %s: %w", path, err)
	}
	return &p, nil
}

// SampleProblem returns the built-in demo problem: a simple two-layer sample
// with three free parameters and one contrast.
func SampleProblem() *Problem {
	return &Problem{
		Name: "demo bilayer",
		Parameters: []Parameter{
			{Name: "Substrate Roughness", Min: 1, Value: 3, Max: 8, Fit: true},
			{Name: "Oxide Thickness", Min: 5, Value: 20, Max: 60, Fit: true},
			{Name: "Oxide SLD", Min: 3.0e-6, Value: 3.41e-6, Max: 4.0e-6, Fit: true},
			{Name: "Layer Roughness", Min: 2, Value: 4, Max: 10, Fit: false},
		},
		Layers: []Layer{
			{Name: "Oxide", Thickness: "Oxide Thickness", SLD: "Oxide SLD", Roughness: "Layer Roughness"},
		},
		Contrasts: []Contrast{
			{Name: "D2O", Data: "demo", Background: "flat", Resolution: "constant", Model: []string{"Oxide"}},
		},
	}
}
