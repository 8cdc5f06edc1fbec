// Package presenter coordinates one calculation run end to end: it validates
// the request, spawns the runner, records the run in the history store and
// relays runner notifications to whichever surface (TUI, plain printer, JSON
// stream) the caller attached.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jeremyspencer39171/rascal/internal/bus"
	"github.com/jeremyspencer39171/rascal/internal/channel"
	"github.com/jeremyspencer39171/rascal/internal/config"
	rascalerr "github.com/jeremyspencer39171/rascal/internal/errors"
	"github.com/jeremyspencer39171/rascal/internal/project"
	"github.com/jeremyspencer39171/rascal/internal/runner"
	"github.com/jeremyspencer39171/rascal/internal/safety"
	"github.com/jeremyspencer39171/rascal/internal/state"
)

// Presenter builds runs. One presenter serves many sequential runs; each run
// gets its own runner and queue so two runs never share a channel.
type Presenter struct {
	cfg        *config.Config
	configPath string
	db         *state.DB
	logger     *log.Logger
}

// New creates a presenter. db may be nil when history is disabled.
func New(cfg *config.Config, configPath string, db *state.DB, logger *log.Logger) *Presenter {
	return &Presenter{cfg: cfg, configPath: configPath, db: db, logger: logger}
}

// Run is one in-flight calculation.
type Run struct {
	ID      string
	Request *project.Request
	Runner  *runner.Runner
	Bus     *bus.MessageBus

	p *Presenter
}

// NewRun validates the request, checks custom model files against the
// project tree and prepares (but does not start) the runner.
func (p *Presenter) NewRun(req *project.Request) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, rascalerr.NewSetup(err)
	}
	guard, err := safety.NewGuard(p.cfg.ProjectDir)
	if err != nil {
		return nil, rascalerr.NewSetup(err)
	}
	if err := guard.ValidateCustomFiles(req.Problem); err != nil {
		return nil, rascalerr.NewSetup(err)
	}

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	queue := channel.NewQueue()
	proc := runner.NewWorkerProcess(req, queue, "--config", p.configPath)
	msgBus := bus.New(10000)
	r := runner.New(proc, queue, msgBus, runID,
		runner.WithPollInterval(p.cfg.Runner.PollInterval))

	run := &Run{ID: runID, Request: req, Runner: r, Bus: msgBus, p: p}
	run.persistTo(p.db)
	return run, nil
}

// persistTo records the run lifecycle in the history store.
func (run *Run) persistTo(db *state.DB) {
	if db == nil {
		return
	}
	run.Bus.Subscribe(bus.MsgRunStarted, func(bus.Message) {
		if err := db.CreateRun(run.ID, run.Request.Problem.Name, string(run.Request.Controls.Procedure)); err != nil {
			run.p.logf("record run: %v", err)
		}
	})
	run.Bus.Subscribe(bus.MsgRunEvent, func(msg bus.Message) {
		ev, ok := msg.Payload.(channel.Message)
		if !ok {
			return
		}
		if _, err := db.AppendEvent(run.ID, string(ev.Kind), ev); err != nil {
			run.p.logf("record event: %v", err)
		}
	})
	run.Bus.Subscribe(bus.MsgRunFinished, func(bus.Message) {
		st := run.Runner.State()
		var chi *float64
		if st.Results != nil {
			chi = &st.Results.ChiSquared
		}
		if err := db.CompleteRun(run.ID, "finished", "", "", chi); err != nil {
			run.p.logf("record result: %v", err)
		}
	})
	run.Bus.Subscribe(bus.MsgRunErrored, func(bus.Message) {
		st := run.Runner.State()
		status, kind, text := "errored", "", ""
		if st.Err != nil {
			status, kind = recordedOutcome(st.Err)
			text = st.Err.Error()
		}
		if err := db.CompleteRun(run.ID, status, kind, text, nil); err != nil {
			run.p.logf("record error: %v", err)
		}
	})
	run.Bus.Subscribe(bus.MsgRunInterrupted, func(bus.Message) {
		if err := db.CompleteRun(run.ID, "interrupted", string(rascalerr.KindInterrupted), "", nil); err != nil {
			run.p.logf("record interruption: %v", err)
		}
	})
}

// recordedOutcome maps a run error to the status and error kind stored in
// history. A worker that died to SIGINT, SIGKILL or SIGTERM left no result
// frame behind, but for the record that is an interruption, not a failure.
func recordedOutcome(err error) (status, kind string) {
	var pe *rascalerr.ProcessError
	if errors.As(err, &pe) {
		k := rascalerr.ClassifyExit(pe.ExitCode)
		if k == rascalerr.KindInterrupted {
			return "interrupted", string(k)
		}
		return "errored", string(k)
	}
	return "errored", string(rascalerr.Classify(err))
}

// Start launches the worker process and polling.
func (run *Run) Start() error {
	return run.Runner.Start()
}

// Interrupt hard-kills the run.
func (run *Run) Interrupt() {
	run.Runner.Interrupt()
}

// Wait blocks until the run terminates or ctx is cancelled; cancellation
// interrupts the run. It returns the final state either way.
func (run *Run) Wait(ctx context.Context) runner.State {
	select {
	case <-run.Runner.Done():
	case <-ctx.Done():
		run.Runner.Interrupt()
		<-run.Runner.Done()
	}
	return run.Runner.State()
}

func (p *Presenter) logf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
