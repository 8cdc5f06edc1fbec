package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/jeremyspencer39171/rascal/internal/project"
)

func simProblem() *project.Problem {
	return &project.Problem{
		Name: "sim test",
		Parameters: []project.Parameter{
			{Name: "thickness", Min: 10, Value: 30, Max: 90, Fit: true},
			{Name: "roughness", Min: 0, Value: 3, Max: 10, Fit: false},
		},
		Contrasts: []project.Contrast{{Name: "d2o"}, {Name: "h2o"}},
	}
}

func TestSimEngineRun(t *testing.T) {
	e := NewSimEngine()
	e.Steps = 4
	var progress []float64
	e.Events().Register(EventProgress, func(ev Event) { progress = append(progress, ev.Percent) })

	controls := &project.Controls{Procedure: project.ProcedureSimplex}
	updated, raw, bayes, err := e.Run(context.Background(), simProblem(), controls)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(progress) != 4 || progress[3] != 1.0 {
		t.Errorf("progress = %v, want 4 steps ending at 1.0", progress)
	}
	if got := updated.Parameters[0].Value; got != 50 {
		t.Errorf("fitted thickness = %g, want the bounds midpoint 50", got)
	}
	if got := updated.Parameters[1].Value; got != 3 {
		t.Errorf("fixed parameter moved to %g", got)
	}
	if _, ok := raw.FittedValues["roughness"]; ok {
		t.Error("fixed parameter appears in fitted values")
	}
	if len(raw.ChiPerContrast) != 2 {
		t.Errorf("ChiPerContrast = %v, want one entry per contrast", raw.ChiPerContrast)
	}
	if bayes != nil {
		t.Error("Bayes output for a non-Bayesian procedure")
	}
}

func TestSimEngineDoesNotMutateInput(t *testing.T) {
	e := NewSimEngine()
	e.Steps = 1
	problem := simProblem()
	before := problem.Parameters[0].Value

	if _, _, _, err := e.Run(context.Background(), problem, &project.Controls{Procedure: project.ProcedureCalculate}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if problem.Parameters[0].Value != before {
		t.Errorf("input problem mutated: %g -> %g", before, problem.Parameters[0].Value)
	}
}

func TestSimEngineBayesian(t *testing.T) {
	e := NewSimEngine()
	e.Steps = 1
	_, _, bayes, err := e.Run(context.Background(), simProblem(), &project.Controls{Procedure: project.ProcedureDream})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if bayes == nil {
		t.Fatal("no Bayes output for dream")
	}
	draws, ok := bayes.PosteriorSamples["thickness"]
	if !ok || len(draws) == 0 {
		t.Errorf("no posterior draws for the fitted parameter: %+v", bayes.PosteriorSamples)
	}
}

func TestSimEngineFail(t *testing.T) {
	e := NewSimEngine()
	e.Fail = errors.New("forced failure")
	_, _, _, err := e.Run(context.Background(), simProblem(), &project.Controls{Procedure: project.ProcedureCalculate})
	if err == nil || err.Error() != "forced failure" {
		t.Errorf("Run error = %v, want the configured failure", err)
	}
}

func TestSimEngineHonorsContext(t *testing.T) {
	e := NewSimEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err := e.Run(ctx, simProblem(), &project.Controls{Procedure: project.ProcedureCalculate})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}
