// Package engine defines the calling convention for the external
// reflectivity fitting engine and the event hooks it exposes while running.
// The engine is an opaque synchronous call: everything this repo knows about
// it is the shape of its inputs, its raw outputs and its three event types.
package engine

import (
	"context"

	"github.com/jeremyspencer39171/rascal/internal/project"
)

// RawResults is the engine's raw output for any procedure.
type RawResults struct {
	// FittedValues maps parameter names to their fitted values.
	FittedValues map[string]float64 `json:"fitted_values,omitempty"`
	// ChiPerContrast is the goodness of fit per contrast, in problem order.
	ChiPerContrast []float64 `json:"chi_per_contrast,omitempty"`
	// SumChi is the total goodness of fit. Zero means "derive from the
	// per-contrast values".
	SumChi     float64 `json:"sum_chi,omitempty"`
	Iterations int     `json:"iterations,omitempty"`
}

// RawBayesResults is the additional output of the Bayesian procedures.
// Nil for everything except nested sampling and DREAM.
type RawBayesResults struct {
	// PosteriorSamples maps parameter names to their posterior draws.
	PosteriorSamples map[string][]float64 `json:"posterior_samples,omitempty"`
	LogEvidence      float64              `json:"log_evidence,omitempty"`
}

// Engine runs the fit exactly once, synchronously. Implementations must be
// retryable per process and must emit interim state only through their Hub.
type Engine interface {
	// Run blocks for the duration of the computation. It returns the problem
	// updated with fitted values, the raw results, and the raw Bayes results
	// (nil for non-Bayesian procedures), or an error.
	Run(ctx context.Context, problem *project.Problem, controls *project.Controls) (*project.Problem, *RawResults, *RawBayesResults, error)

	// Events returns the hub interim events are notified on.
	Events() *Hub
}
