package results

import (
	"math"
	"testing"

	"github.com/jeremyspencer39171/rascal/internal/engine"
	"github.com/jeremyspencer39171/rascal/internal/project"
)

func TestMakeNilRaw(t *testing.T) {
	res := Make(project.ProcedureCalculate, nil, nil)
	if res == nil {
		t.Fatal("Make returned nil")
	}
	if res.Procedure != project.ProcedureCalculate {
		t.Errorf("procedure = %s", res.Procedure)
	}
	if res.ChiSquared != 0 || res.Bayes != nil {
		t.Errorf("empty raw produced %+v", res)
	}
}

func TestMakeSumsChiPerContrast(t *testing.T) {
	raw := &engine.RawResults{
		ChiPerContrast: []float64{1.5, 2.5, 0.5},
		FittedValues:   map[string]float64{"thickness": 42},
		Iterations:     17,
	}
	res := Make(project.ProcedureSimplex, raw, nil)
	if res.ChiSquared != 4.5 {
		t.Errorf("ChiSquared = %g, want 4.5", res.ChiSquared)
	}
	if res.Iterations != 17 {
		t.Errorf("Iterations = %d, want 17", res.Iterations)
	}
	if res.FittedValues["thickness"] != 42 {
		t.Errorf("FittedValues = %+v", res.FittedValues)
	}
}

func TestMakePrefersReportedSum(t *testing.T) {
	raw := &engine.RawResults{
		ChiPerContrast: []float64{1, 1},
		SumChi:         3.25,
	}
	res := Make(project.ProcedureDE, raw, nil)
	if res.ChiSquared != 3.25 {
		t.Errorf("ChiSquared = %g, want the engine-reported 3.25", res.ChiSquared)
	}
}

func TestMakeBayesOnlyForBayesianProcedures(t *testing.T) {
	raw := &engine.RawResults{ChiPerContrast: []float64{1}}
	bayes := &engine.RawBayesResults{
		PosteriorSamples: map[string][]float64{"sld": {1, 2, 3}},
		LogEvidence:      -50,
	}

	if res := Make(project.ProcedureSimplex, raw, bayes); res.Bayes != nil {
		t.Error("Bayes block attached for a non-Bayesian procedure")
	}
	res := Make(project.ProcedureDream, raw, bayes)
	if res.Bayes == nil {
		t.Fatal("no Bayes block for dream")
	}
	if res.Bayes.LogEvidence != -50 {
		t.Errorf("LogEvidence = %g, want -50", res.Bayes.LogEvidence)
	}
	if res := Make(project.ProcedureNS, raw, nil); res.Bayes != nil {
		t.Error("Bayes block attached with no raw Bayes output")
	}
}

func TestSummarize(t *testing.T) {
	draws := make([]float64, 1000)
	for i := range draws {
		draws[i] = float64(i)
	}
	s := summarize(draws)
	if math.Abs(s.Mean-499.5) > 1e-9 {
		t.Errorf("Mean = %g, want 499.5", s.Mean)
	}
	if s.StdDev <= 0 {
		t.Errorf("StdDev = %g, want positive", s.StdDev)
	}
	if s.CI95[0] >= s.CI95[1] {
		t.Errorf("CI95 = %v, want ordered interval", s.CI95)
	}
	if s.CI95[0] > 50 || s.CI95[1] < 950 {
		t.Errorf("CI95 = %v, implausible for uniform draws over [0,999]", s.CI95)
	}
}

func TestSummarizeEdgeCases(t *testing.T) {
	if s := summarize(nil); s.Mean != 0 || s.StdDev != 0 {
		t.Errorf("summarize(nil) = %+v, want zero value", s)
	}
	s := summarize([]float64{3.5})
	if s.Mean != 3.5 {
		t.Errorf("Mean = %g, want 3.5", s.Mean)
	}
	if s.StdDev != 0 {
		t.Errorf("StdDev = %g for a single draw, want 0", s.StdDev)
	}
	if s.CI95[0] != 3.5 || s.CI95[1] != 3.5 {
		t.Errorf("CI95 = %v, want degenerate interval", s.CI95)
	}
}

// Same inputs must always produce the same results object.
func TestMakeDeterministic(t *testing.T) {
	raw := &engine.RawResults{ChiPerContrast: []float64{0.25, 0.75}}
	bayes := &engine.RawBayesResults{
		PosteriorSamples: map[string][]float64{"rough": {1.0, 1.1, 0.9, 1.05}},
		LogEvidence:      -10,
	}
	a := Make(project.ProcedureDream, raw, bayes)
	b := Make(project.ProcedureDream, raw, bayes)
	if a.ChiSquared != b.ChiSquared {
		t.Errorf("chi differs across calls: %g vs %g", a.ChiSquared, b.ChiSquared)
	}
	if a.Bayes.Parameters["rough"] != b.Bayes.Parameters["rough"] {
		t.Errorf("posterior summary differs across calls")
	}
}
