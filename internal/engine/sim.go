package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jeremyspencer39171/rascal/internal/project"
)

// SimEngine is a deterministic in-process engine used for demo runs and
// tests. It emits a scripted progress sequence, "fits" each free parameter
// to the midpoint of its bounds and reports a fabricated goodness of fit.
type SimEngine struct {
	hub *Hub
	// StepDelay paces event emission; zero means no pacing.
	StepDelay time.Duration
	// Steps is the number of progress events; defaults to 10.
	Steps int
	// Fail, when set, makes Run return this error after the first event.
	Fail error
}

// NewSimEngine returns a simulated engine.
func NewSimEngine() *SimEngine {
	return &SimEngine{hub: NewHub(), Steps: 10}
}

func (e *SimEngine) Events() *Hub { return e.hub }

func (e *SimEngine) Run(ctx context.Context, problem *project.Problem, controls *project.Controls) (*project.Problem, *RawResults, *RawBayesResults, error) {
	e.hub.Notify(Event{Type: EventMessage, Message: fmt.Sprintf("simulating %s on %q", controls.Procedure, problem.Name)})
	if e.Fail != nil {
		return nil, nil, nil, e.Fail
	}

	steps := e.Steps
	if steps <= 0 {
		steps = 10
	}
	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}
		if e.StepDelay > 0 {
			time.Sleep(e.StepDelay)
		}
		e.hub.Notify(Event{Type: EventProgress, Percent: float64(i) / float64(steps)})
	}

	updated := *problem
	updated.Parameters = make([]project.Parameter, len(problem.Parameters))
	copy(updated.Parameters, problem.Parameters)
	fitted := make(map[string]float64)
	for i, p := range updated.Parameters {
		if p.Fit {
			updated.Parameters[i].Value = (p.Min + p.Max) / 2
			fitted[p.Name] = updated.Parameters[i].Value
		}
	}

	chi := make([]float64, len(problem.Contrasts))
	for i := range chi {
		chi[i] = 1.0 / float64(i+1)
	}
	raw := &RawResults{
		FittedValues:   fitted,
		ChiPerContrast: chi,
		Iterations:     steps,
	}

	var bayes *RawBayesResults
	if controls.Procedure.Bayesian() {
		samples := make(map[string][]float64, len(fitted))
		for name, v := range fitted {
			draws := make([]float64, 64)
			for i := range draws {
				// Symmetric spread around the fitted value, deterministic.
				draws[i] = v + float64(i%16-8)*0.01*v
			}
			samples[name] = draws
		}
		bayes = &RawBayesResults{PosteriorSamples: samples, LogEvidence: -123.4}
	}
	return &updated, raw, bayes, nil
}
