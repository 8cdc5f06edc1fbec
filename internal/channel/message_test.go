package channel

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/jeremyspencer39171/rascal/internal/project"
	"github.com/jeremyspencer39171/rascal/internal/results"
)

func TestMessageTerminal(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		terminal bool
	}{
		{"log", NewLog(LevelInfo, "hi"), false},
		{"progress", NewProgress(0.5), false},
		{"plot", NewPlot(&PlotData{Contrast: "d2o"}), false},
		{"result", NewResult(&project.Problem{Name: "p"}, &results.Results{}), true},
		{"error", NewError(errors.New("boom")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	problem := &project.Problem{
		Name: "bilayer",
		Parameters: []project.Parameter{
			{Name: "thickness", Min: 10, Value: 42, Max: 100, Fit: true},
		},
	}
	res := &results.Results{ChiSquared: 1.5, Iterations: 12, Procedure: project.ProcedureSimplex}

	tests := []struct {
		name string
		msg  Message
	}{
		{"log", NewLog(LevelWarning, "resolution smearing disabled")},
		{"progress", NewProgress(0.73)},
		{"plot", NewPlot(&PlotData{Contrast: "d2o", Q: []float64{0.01, 0.02}, Reflectivity: []float64{1, 0.5}})},
		{"result", NewResult(problem, res)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got.Kind != tt.msg.Kind {
				t.Fatalf("kind = %s, want %s", got.Kind, tt.msg.Kind)
			}
			switch tt.msg.Kind {
			case KindLog:
				if got.Log.Level != tt.msg.Log.Level || got.Log.Text != tt.msg.Log.Text {
					t.Errorf("log = %+v, want %+v", got.Log, tt.msg.Log)
				}
			case KindProgress:
				if got.Progress.Percent != tt.msg.Progress.Percent {
					t.Errorf("percent = %g, want %g", got.Progress.Percent, tt.msg.Progress.Percent)
				}
			case KindPlot:
				if got.Plot.Contrast != "d2o" || len(got.Plot.Q) != 2 {
					t.Errorf("plot = %+v", got.Plot)
				}
			case KindResult:
				if got.Result.Results.ChiSquared != 1.5 {
					t.Errorf("chi = %g, want 1.5", got.Result.Results.ChiSquared)
				}
				if got.Result.UpdatedProblem.Parameters[0].Value != 42 {
					t.Errorf("updated problem did not survive the round trip: %+v", got.Result.UpdatedProblem)
				}
			}
		})
	}
}

// The original error text must survive the process boundary even though the
// concrete error type cannot.
func TestErrorTextSurvivesRoundTrip(t *testing.T) {
	orig := NewError(errors.New("custom file evaluation failed: X"))
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Kind != KindError {
		t.Fatalf("kind = %s, want %s", got.Kind, KindError)
	}
	var remote *RemoteError
	if !errors.As(got.Err, &remote) {
		t.Fatalf("decoded error is %T, want *RemoteError", got.Err)
	}
	if got.Err.Error() != "custom file evaluation failed: X" {
		t.Errorf("error text = %q, want original text", got.Err.Error())
	}
}

func TestEncoderPumpPipeline(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Put(NewLog(LevelInfo, "Starting RAT"))
	enc.Put(NewProgress(0.4))
	enc.Put(NewError(errors.New("solver diverged")))
	if err := enc.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	q := NewQueue()
	if err := Pump(&buf, q); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	msgs := q.Drain()
	if len(msgs) != 3 {
		t.Fatalf("pumped %d messages, want 3", len(msgs))
	}
	if msgs[0].Log.Text != "Starting RAT" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[2].Err == nil || msgs[2].Err.Error() != "solver diverged" {
		t.Errorf("terminal error = %+v", msgs[2])
	}
}

// A stray print from native code interleaved with frames must not wedge the
// stream; the decodable frames still arrive.
func TestPumpSkipsGarbageLines(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Put(NewProgress(0.1))
	buf.WriteString("Warning: gfortran runtime noise\n")
	buf.WriteString("\n")
	enc.Put(NewProgress(0.2))

	q := NewQueue()
	if err := Pump(&buf, q); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	msgs := q.Drain()
	if len(msgs) != 2 {
		t.Fatalf("pumped %d messages, want 2", len(msgs))
	}
	if msgs[0].Progress.Percent != 0.1 || msgs[1].Progress.Percent != 0.2 {
		t.Errorf("frames out of order: %+v", msgs)
	}
}

func TestEncoderStickyError(t *testing.T) {
	enc := NewEncoder(failWriter{})
	enc.Put(NewProgress(0.5))
	if enc.Err() == nil {
		t.Fatal("Err() = nil after write failure")
	}
	// Later writes do not clear the error.
	enc.Put(NewProgress(0.6))
	if enc.Err() == nil {
		t.Fatal("Err() cleared by a later Put")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("pipe closed") }

func TestPumpOneFramePerLine(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Put(NewLog(LevelInfo, "a"))
	enc.Put(NewLog(LevelInfo, "b"))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("encoded %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "{") {
			t.Errorf("line is not a JSON object: %q", line)
		}
	}
}
