// Package channel carries the heterogeneous event stream between the worker
// process and the calculation runner: log records, progress updates, plot
// snapshots and exactly one terminal message (a result or an error) per run.
package channel

import (
	json "github.com/goccy/go-json"

	"github.com/jeremyspencer39171/rascal/internal/project"
	"github.com/jeremyspencer39171/rascal/internal/results"
)

// Kind is the explicit discriminant of the Message tagged union.
type Kind string

const (
	KindLog      Kind = "log"
	KindProgress Kind = "progress"
	KindPlot     Kind = "plot"
	KindResult   Kind = "result"
	KindError    Kind = "error"
)

// Log levels, matching the numeric levels the terminal widget expects.
const (
	LevelDebug   = 10
	LevelInfo    = 20
	LevelWarning = 30
	LevelError   = 40
)

// LogData is an informational or diagnostic line from the engine.
type LogData struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// ProgressData is fractional completion in [0, 1].
type ProgressData struct {
	Percent float64 `json:"percent"`
}

// PlotData is a rendering-ready snapshot of the intermediate fit state.
type PlotData struct {
	Contrast     string    `json:"contrast,omitempty"`
	Q            []float64 `json:"q,omitempty"`
	Reflectivity []float64 `json:"reflectivity,omitempty"`
	Data         []float64 `json:"data,omitempty"`
}

// ResultData is the terminal success payload: the problem updated with fitted
// values plus the assembled results object.
type ResultData struct {
	UpdatedProblem *project.Problem `json:"updated_problem"`
	Results        *results.Results `json:"results"`
}

// Message is one item on the event channel. Exactly one payload field is set,
// selected by Kind.
type Message struct {
	Kind     Kind
	Log      *LogData
	Progress *ProgressData
	Plot     *PlotData
	Result   *ResultData
	Err      error
}

// Terminal reports whether the message ends a run.
func (m Message) Terminal() bool {
	return m.Kind == KindResult || m.Kind == KindError
}

func NewLog(level int, text string) Message {
	return Message{Kind: KindLog, Log: &LogData{Level: level, Text: text}}
}

func NewProgress(percent float64) Message {
	return Message{Kind: KindProgress, Progress: &ProgressData{Percent: percent}}
}

func NewPlot(p *PlotData) Message {
	return Message{Kind: KindPlot, Plot: p}
}

func NewResult(updated *project.Problem, res *results.Results) Message {
	return Message{Kind: KindResult, Result: &ResultData{UpdatedProblem: updated, Results: res}}
}

func NewError(err error) Message {
	return Message{Kind: KindError, Err: err}
}

// RemoteError is an error that crossed the process boundary. The original
// message text survives the round trip intact.
type RemoteError struct {
	Text string `json:"text"`
}

func (e *RemoteError) Error() string { return e.Text }

// frame is the wire form of a Message: newline-delimited JSON with the kind
// tag first, so the consumer classifies without schema negotiation.
type frame struct {
	Kind     Kind          `json:"kind"`
	Log      *LogData      `json:"log,omitempty"`
	Progress *ProgressData `json:"progress,omitempty"`
	Plot     *PlotData     `json:"plot,omitempty"`
	Result   *ResultData   `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// MarshalJSON encodes the message as a tagged frame.
func (m Message) MarshalJSON() ([]byte, error) {
	f := frame{
		Kind:     m.Kind,
		Log:      m.Log,
		Progress: m.Progress,
		Plot:     m.Plot,
		Result:   m.Result,
	}
	if m.Err != nil {
		f.Error = m.Err.Error()
	}
	return json.Marshal(f)
}

// UnmarshalJSON decodes a tagged frame. Errors come back as a RemoteError
// carrying the original message text.
func (m *Message) UnmarshalJSON(data []byte) error {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = Message{
		Kind:     f.Kind,
		Log:      f.Log,
		Progress: f.Progress,
		Plot:     f.Plot,
		Result:   f.Result,
	}
	if f.Kind == KindError {
		m.Err = &RemoteError{Text: f.Error}
	}
	return nil
}
