// Package errors classifies calculation failures and provides panic recovery
// for the worker boundary. It distinguishes setup failures (an interpreter
// bridge that never came up), engine failures (the fit itself raised an
// error) and process failures (the worker died without reporting anything).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorises a calculation failure.
type Kind string

const (
	// KindSetup means the run never reached the engine: interpreter bridge
	// unavailable, bad request, missing solver binary.
	KindSetup Kind = "setup"
	// KindEngine means the engine call itself failed. The computation is
	// fully abandoned; no partial results are accepted.
	KindEngine Kind = "engine"
	// KindProcess means the worker process exited without writing a terminal
	// message (crash, OOM kill, external signal).
	KindProcess Kind = "process"
	// KindInterrupted is not a failure: the user killed the run.
	KindInterrupted Kind = "interrupted"
	// KindPanic indicates a recovered panic inside the worker.
	KindPanic Kind = "panic"
)

// SetupError reports a failure before any computation started.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string { return fmt.Sprintf("setup failed: %v", e.Err) }
func (e *SetupError) Unwrap() error { return e.Err }

// EngineError wraps an error raised by the synchronous engine call.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string { return e.Err.Error() }
func (e *EngineError) Unwrap() error { return e.Err }

// ProcessError reports a worker process that exited without producing a
// terminal message. ExitCode is -1 when unknown.
type ProcessError struct {
	ExitCode int
}

func (e *ProcessError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("engine process exited without a result (exit code %d)", e.ExitCode)
	}
	return "engine process exited without a result"
}

// NewSetup wraps an error as a setup failure.
func NewSetup(err error) error { return &SetupError{Err: err} }

// NewEngine wraps an error as an engine failure.
func NewEngine(err error) error { return &EngineError{Err: err} }

// Classify determines the failure kind for any error.
func Classify(err error) Kind {
	if err == nil {
		return KindEngine
	}
	var se *SetupError
	if errors.As(err, &se) {
		return KindSetup
	}
	var pe *ProcessError
	if errors.As(err, &pe) {
		return KindProcess
	}
	msg := strings.ToLower(err.Error())
	setupPatterns := []string{
		"executable file not found",
		"no such file or directory",
		"permission denied",
		"bridge",
		"matlab",
	}
	for _, p := range setupPatterns {
		if strings.Contains(msg, p) {
			return KindSetup
		}
	}
	return KindEngine
}

// ClassifyExit categorises a worker process exit code observed with an empty
// terminal slot.
func ClassifyExit(exitCode int) Kind {
	switch exitCode {
	case 130, 137, 143:
		// SIGINT / SIGKILL / SIGTERM: killed from outside.
		return KindInterrupted
	default:
		return KindProcess
	}
}

// Recovery holds the result of a recovered panic.
type Recovery struct {
	Recovered  bool
	PanicValue interface{}
	ErrorMsg   string
}

// RecoverPanic converts a recover() value into a Recovery. Use with defer:
//
//	defer func() {
//	    if r := errors.RecoverPanic(recover()); r.Recovered {
//	        // report r.ErrorMsg
//	    }
//	}()
func RecoverPanic(r interface{}) Recovery {
	if r == nil {
		return Recovery{}
	}
	rec := Recovery{Recovered: true, PanicValue: r}
	switch v := r.(type) {
	case error:
		rec.ErrorMsg = fmt.Sprintf("panic: %v", v)
	case string:
		rec.ErrorMsg = fmt.Sprintf("panic: %s", v)
	default:
		rec.ErrorMsg = fmt.Sprintf("panic: %+v", v)
	}
	return rec
}
