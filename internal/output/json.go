package output

import (
	"io"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// EventType represents the type of JSON output event.
type EventType string

const (
	EventRunStart    EventType = "run_start"
	EventRunEvent    EventType = "run_event"
	EventRunFinished EventType = "run_finished"
	EventRunStopped  EventType = "run_stopped"
	EventError       EventType = "error"
)

// JSONEvent is the wrapper for all JSON output events, one per line.
type JSONEvent struct {
	Type    EventType   `json:"type"`
	RunID   string      `json:"run_id,omitempty"`
	Time    time.Time   `json:"time"`
	Payload interface{} `json:"payload,omitempty"`
}

// JSONWriter emits newline-delimited JSON events for machine consumers.
type JSONWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

// Emit writes one event. Write failures are ignored; a broken pipe on the
// consumer side should not abort the fit.
func (j *JSONWriter) Emit(t EventType, runID string, payload interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	data, err := json.Marshal(JSONEvent{Type: t, RunID: runID, Time: time.Now().UTC(), Payload: payload})
	if err != nil {
		return
	}
	j.w.Write(append(data, '\n'))
}
