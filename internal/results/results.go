// Package results assembles the presenter-facing results object from the
// engine's raw outputs. Make is a pure function: same inputs, same results.
package results

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jeremyspencer39171/rascal/internal/engine"
	"github.com/jeremyspencer39171/rascal/internal/project"
)

// PosteriorSummary condenses one parameter's posterior draws.
type PosteriorSummary struct {
	Mean   float64    `json:"mean"`
	StdDev float64    `json:"std_dev"`
	CI95   [2]float64 `json:"ci95"`
}

// BayesResults is attached only for the Bayesian procedures.
type BayesResults struct {
	LogEvidence float64                     `json:"log_evidence"`
	Parameters  map[string]PosteriorSummary `json:"parameters"`
}

// Results is what the presenter consumes after a successful run.
type Results struct {
	Procedure      project.Procedure  `json:"procedure"`
	ChiSquared     float64            `json:"chi_squared"`
	ChiPerContrast []float64          `json:"chi_per_contrast,omitempty"`
	FittedValues   map[string]float64 `json:"fitted_values,omitempty"`
	Iterations     int                `json:"iterations,omitempty"`
	Bayes          *BayesResults      `json:"bayes,omitempty"`
}

// Make maps the raw engine outputs to a Results object. The Bayes block is
// attached only when the procedure is Bayesian and raw Bayes output exists.
func Make(procedure project.Procedure, raw *engine.RawResults, bayes *engine.RawBayesResults) *Results {
	res := &Results{Procedure: procedure}
	if raw != nil {
		res.ChiPerContrast = raw.ChiPerContrast
		res.FittedValues = raw.FittedValues
		res.Iterations = raw.Iterations
		res.ChiSquared = raw.SumChi
		if res.ChiSquared == 0 && len(raw.ChiPerContrast) > 0 {
			res.ChiSquared = floats.Sum(raw.ChiPerContrast)
		}
	}
	if procedure.Bayesian() && bayes != nil {
		res.Bayes = &BayesResults{
			LogEvidence: bayes.LogEvidence,
			Parameters:  make(map[string]PosteriorSummary, len(bayes.PosteriorSamples)),
		}
		for name, draws := range bayes.PosteriorSamples {
			res.Bayes.Parameters[name] = summarize(draws)
		}
	}
	return res
}

// summarize reduces posterior draws to mean, spread and a 95% interval.
func summarize(draws []float64) PosteriorSummary {
	if len(draws) == 0 {
		return PosteriorSummary{}
	}
	sorted := make([]float64, len(draws))
	copy(sorted, draws)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return PosteriorSummary{
		Mean:   mean,
		StdDev: std,
		CI95: [2]float64{
			stat.Quantile(0.025, stat.Empirical, sorted, nil),
			stat.Quantile(0.975, stat.Empirical, sorted, nil),
		},
	}
}
