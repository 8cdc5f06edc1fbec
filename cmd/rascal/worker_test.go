package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/jeremyspencer39171/rascal/internal/channel"
	"github.com/jeremyspencer39171/rascal/internal/project"
)

func drainFrames(t *testing.T, out *bytes.Buffer) []channel.Message {
	t.Helper()
	q := channel.NewQueue()
	if err := channel.Pump(bytes.NewReader(out.Bytes()), q); err != nil {
		t.Fatalf("decode frames: %v", err)
	}
	return q.Drain()
}

// A request the parent cannot have encoded correctly must still come back
// through the frame protocol, not as a bare nonzero exit the runner can
// only report as a process death.
func TestWorkerMainReportsBadRequest(t *testing.T) {
	var out bytes.Buffer
	err := workerMain(filepath.Join(t.TempDir(), "rascal.json"), strings.NewReader("{not json"), &out)
	if err == nil {
		t.Fatal("expected an error for a malformed request")
	}

	msgs := drainFrames(t, &out)
	if len(msgs) != 1 {
		t.Fatalf("got %d frames, want 1", len(msgs))
	}
	if msgs[0].Kind != channel.KindError {
		t.Fatalf("frame kind = %q, want %q", msgs[0].Kind, channel.KindError)
	}
	if !strings.Contains(msgs[0].Err.Error(), "decode request") {
		t.Errorf("error frame text = %q, want decode failure", msgs[0].Err.Error())
	}
}

func TestWorkerMainReportsBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rascal.json")
	if err := os.WriteFile(path, []byte(`{"engine":{"command":""}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	err := workerMain(path, strings.NewReader("{}"), &out)
	if err == nil {
		t.Fatal("expected an error for an invalid config")
	}

	msgs := drainFrames(t, &out)
	if len(msgs) != 1 {
		t.Fatalf("got %d frames, want 1", len(msgs))
	}
	if msgs[0].Kind != channel.KindError {
		t.Fatalf("frame kind = %q, want %q", msgs[0].Kind, channel.KindError)
	}
	if !strings.Contains(msgs[0].Err.Error(), "load config") {
		t.Errorf("error frame text = %q, want config failure", msgs[0].Err.Error())
	}
}

func TestWorkerMainRunsSimEngine(t *testing.T) {
	req := &project.Request{
		Problem:  project.SampleProblem(),
		Controls: project.DefaultControls(),
		Display:  false,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}

	var out bytes.Buffer
	if err := workerMain(filepath.Join(t.TempDir(), "rascal.json"), bytes.NewReader(payload), &out); err != nil {
		t.Fatalf("workerMain: %v", err)
	}

	msgs := drainFrames(t, &out)
	if len(msgs) == 0 {
		t.Fatal("no frames produced")
	}
	last := msgs[len(msgs)-1]
	if last.Kind != channel.KindResult {
		t.Fatalf("last frame kind = %q, want %q", last.Kind, channel.KindResult)
	}
	if last.Result == nil || last.Result.Results == nil {
		t.Fatal("result frame has no results payload")
	}
}
