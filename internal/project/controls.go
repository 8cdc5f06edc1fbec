package project

import (
	"fmt"
	"strings"
)

// Procedure is the optimisation procedure the engine should run.
type Procedure string

const (
	ProcedureCalculate Procedure = "calculate"
	ProcedureSimplex   Procedure = "simplex"
	ProcedureDE        Procedure = "de"
	ProcedureNS        Procedure = "ns"
	ProcedureDream     Procedure = "dream"
)

// Procedures lists every valid procedure in display order.
func Procedures() []Procedure {
	return []Procedure{ProcedureCalculate, ProcedureSimplex, ProcedureDE, ProcedureNS, ProcedureDream}
}

// ParseProcedure parses a procedure name, case-insensitively.
func ParseProcedure(s string) (Procedure, error) {
	switch Procedure(strings.ToLower(s)) {
	case ProcedureCalculate:
		return ProcedureCalculate, nil
	case ProcedureSimplex:
		return ProcedureSimplex, nil
	case ProcedureDE:
		return ProcedureDE, nil
	case ProcedureNS:
		return ProcedureNS, nil
	case ProcedureDream:
		return ProcedureDream, nil
	}
	return "", fmt.Errorf("unknown procedure %q", s)
}

// Bayesian reports whether the procedure produces posterior samples.
func (p Procedure) Bayesian() bool {
	return p == ProcedureNS || p == ProcedureDream
}

// Controls is the solver configuration passed to the engine alongside the
// problem definition.
type Controls struct {
	Procedure     Procedure `json:"procedure"`
	MaxIterations int       `json:"max_iterations,omitempty"`
	Tolerance     float64   `json:"tolerance,omitempty"`
	// Population size for differential evolution.
	Population int `json:"population,omitempty"`
	// Live points for nested sampling.
	LivePoints int `json:"live_points,omitempty"`
	// Chains and burn-in for DREAM.
	Chains int `json:"chains,omitempty"`
	Burn   int `json:"burn,omitempty"`
}

// DefaultControls returns controls for a plain calculation.
func DefaultControls() *Controls {
	return &Controls{
		Procedure:     ProcedureCalculate,
		MaxIterations: 1000,
		Tolerance:     1e-6,
		Population:    20,
		LivePoints:    400,
		Chains:        10,
		Burn:          1000,
	}
}

// Validate checks the controls for the selected procedure.
func (c *Controls) Validate() error {
	if _, err := ParseProcedure(string(c.Procedure)); err != nil {
		return err
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative, got %d", c.MaxIterations)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %g", c.Tolerance)
	}
	switch c.Procedure {
	case ProcedureDE:
		if c.Population <= 0 {
			return fmt.Errorf("de requires a positive population, got %d", c.Population)
		}
	case ProcedureNS:
		if c.LivePoints <= 0 {
			return fmt.Errorf("ns requires positive live points, got %d", c.LivePoints)
		}
	case ProcedureDream:
		if c.Chains <= 0 {
			return fmt.Errorf("dream requires positive chains, got %d", c.Chains)
		}
	}
	return nil
}

// Request is the immutable input bundle for one calculation run. It is
// created once by the caller and handed to the worker process by value; the
// process boundary enforces the copy.
type Request struct {
	Problem  *Problem  `json:"problem"`
	Controls *Controls `json:"controls"`
	// Display controls whether interim engine events are forwarded.
	Display bool `json:"display"`
}

// Validate checks the request is complete and consistent.
func (r *Request) Validate() error {
	if r.Problem == nil {
		return fmt.Errorf("request has no problem definition")
	}
	if r.Controls == nil {
		return fmt.Errorf("request has no controls")
	}
	if err := r.Problem.Validate(); err != nil {
		return fmt.Errorf("problem: %w", err)
	}
	if err := r.Controls.Validate(); err != nil {
		return fmt.Errorf("controls: %w", err)
	}
	return nil
}
