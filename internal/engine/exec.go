package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/jeremyspencer39171/rascal/internal/project"
)

// ExecEngine drives an external solver binary. The problem and controls are
// written to the solver's stdin as JSON; the solver reports interim state on
// stdout with a line protocol and finishes with a single RESULT line:
//
//	MESSAGE <text>
//	PROGRESS <fraction>
//	PLOT <json>
//	RESULT <json>
type ExecEngine struct {
	command string
	args    []string
	hub     *Hub
}

// NewExecEngine creates an engine for the given solver command.
func NewExecEngine(command string, args []string) *ExecEngine {
	return &ExecEngine{command: command, args: args, hub: NewHub()}
}

func (e *ExecEngine) Events() *Hub { return e.hub }

// execResult is the payload of the solver's RESULT line.
type execResult struct {
	UpdatedProblem *project.Problem `json:"updated_problem"`
	Results        *RawResults      `json:"results"`
	BayesResults   *RawBayesResults `json:"bayes_results,omitempty"`
}

// execInput is what the solver reads from stdin.
type execInput struct {
	Problem  *project.Problem  `json:"problem"`
	Controls *project.Controls `json:"controls"`
}

func (e *ExecEngine) Run(ctx context.Context, problem *project.Problem, controls *project.Controls) (*project.Problem, *RawResults, *RawBayesResults, error) {
	input, err := json.Marshal(execInput{Problem: problem, Controls: controls})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode solver input: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = bytes.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("solver stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, nil, fmt.Errorf("start solver %s: %w", e.command, err)
	}

	var final *execResult
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "MESSAGE "):
			e.hub.Notify(Event{Type: EventMessage, Message: strings.TrimPrefix(line, "MESSAGE ")})
		case strings.HasPrefix(line, "PROGRESS "):
			pct, err := strconv.ParseFloat(strings.TrimPrefix(line, "PROGRESS "), 64)
			if err == nil && pct >= 0 && pct <= 1 {
				e.hub.Notify(Event{Type: EventProgress, Percent: pct})
			}
		case strings.HasPrefix(line, "PLOT "):
			var plot PlotEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "PLOT ")), &plot); err == nil {
				e.hub.Notify(Event{Type: EventPlot, Plot: &plot})
			}
		case strings.HasPrefix(line, "RESULT "):
			var res execResult
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "RESULT ")), &res); err != nil {
				return nil, nil, nil, fmt.Errorf("decode solver result: %w", err)
			}
			final = &res
		}
	}
	scanErr := sc.Err()

	if err := cmd.Wait(); err != nil {
		return nil, nil, nil, fmt.Errorf("solver failed: %w%s", err, stderrTail(stderr.String()))
	}
	if scanErr != nil {
		return nil, nil, nil, fmt.Errorf("read solver output: %w", scanErr)
	}
	if final == nil || final.Results == nil {
		return nil, nil, nil, fmt.Errorf("solver exited without a RESULT line")
	}
	updated := final.UpdatedProblem
	if updated == nil {
		updated = problem
	}
	return updated, final.Results, final.BayesResults, nil
}

// stderrTail formats the last few lines of solver stderr for error messages.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return ": " + strings.Join(lines, "; ")
}
