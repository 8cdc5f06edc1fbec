package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"setup wrapper", NewSetup(errors.New("bad config")), KindSetup},
		{"wrapped setup", fmt.Errorf("outer: %w", NewSetup(errors.New("inner"))), KindSetup},
		{"process error", &ProcessError{ExitCode: 137}, KindProcess},
		{"engine wrapper", NewEngine(errors.New("singular matrix")), KindEngine},
		{"missing binary", errors.New("exec: \"rat\": executable file not found in $PATH"), KindSetup},
		{"missing file", errors.New("open model.m: no such file or directory"), KindSetup},
		{"permissions", errors.New("permission denied"), KindSetup},
		{"bridge failure", errors.New("bridge startup timed out"), KindSetup},
		{"matlab failure", errors.New("MATLAB did not announce readiness"), KindSetup},
		{"plain failure", errors.New("optimisation diverged"), KindEngine},
		{"nil", nil, KindEngine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.expected {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClassifyExit(t *testing.T) {
	tests := []struct {
		code     int
		expected Kind
	}{
		{130, KindInterrupted},
		{137, KindInterrupted},
		{143, KindInterrupted},
		{0, KindProcess},
		{1, KindProcess},
		{-1, KindProcess},
		{139, KindProcess},
	}
	for _, tt := range tests {
		if got := ClassifyExit(tt.code); got != tt.expected {
			t.Errorf("ClassifyExit(%d) = %s, want %s", tt.code, got, tt.expected)
		}
	}
}

func TestWrappersUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	if !errors.Is(NewSetup(inner), inner) {
		t.Error("SetupError does not unwrap to its cause")
	}
	if !errors.Is(NewEngine(inner), inner) {
		t.Error("EngineError does not unwrap to its cause")
	}
	if got := NewEngine(inner).Error(); got != "root cause" {
		t.Errorf("EngineError.Error() = %q, want the original text", got)
	}
	if !strings.Contains(NewSetup(inner).Error(), "root cause") {
		t.Error("SetupError.Error() drops the cause")
	}
}

func TestProcessErrorMessage(t *testing.T) {
	if got := (&ProcessError{ExitCode: 9}).Error(); !strings.Contains(got, "exit code 9") {
		t.Errorf("Error() = %q, want exit code included", got)
	}
	if got := (&ProcessError{ExitCode: -1}).Error(); strings.Contains(got, "-1") {
		t.Errorf("Error() = %q, unknown exit code should be omitted", got)
	}
}

func TestRecoverPanic(t *testing.T) {
	if r := RecoverPanic(nil); r.Recovered {
		t.Error("RecoverPanic(nil) reported a recovery")
	}

	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"string", "index out of range", "panic: index out of range"},
		{"error", errors.New("nil map write"), "panic: nil map write"},
		{"other", 42, "panic: 42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RecoverPanic(tt.value)
			if !r.Recovered {
				t.Fatal("not recovered")
			}
			if r.ErrorMsg != tt.want {
				t.Errorf("ErrorMsg = %q, want %q", r.ErrorMsg, tt.want)
			}
		})
	}
}

func TestRecoverPanicInDefer(t *testing.T) {
	var rec Recovery
	func() {
		defer func() {
			rec = RecoverPanic(recover())
		}()
		panic("deliberate")
	}()
	if !rec.Recovered || rec.ErrorMsg != "panic: deliberate" {
		t.Errorf("recovery = %+v", rec)
	}
}
