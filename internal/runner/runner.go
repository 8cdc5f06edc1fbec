// Package runner owns the lifecycle of one fitting run: it spawns the worker
// process, polls the event channel without ever blocking the caller, and
// reconciles interim events, results, interruption and failure into a single
// state exposed to the presenter.
package runner

import (
	"errors"
	"sync"
	"time"

	"github.com/jeremyspencer39171/rascal/internal/bus"
	"github.com/jeremyspencer39171/rascal/internal/channel"
	rascalerr "github.com/jeremyspencer39171/rascal/internal/errors"
	"github.com/jeremyspencer39171/rascal/internal/project"
	"github.com/jeremyspencer39171/rascal/internal/results"
)

// Status is the runner's lifecycle state.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusRunning     Status = "running"
	StatusFinished    Status = "finished"
	StatusInterrupted Status = "interrupted"
	StatusErrored     Status = "errored"
)

// DefaultPollInterval is the queue polling period. Short enough that the
// event pane feels live, long enough not to spin.
const DefaultPollInterval = time.Millisecond

// State is everything a run has produced so far. Events holds the
// non-terminal messages in enqueue order; exactly one of Results (with
// UpdatedProblem) or Err is set once the run terminates.
type State struct {
	UpdatedProblem *project.Problem
	Results        *results.Results
	Err            error
	Events         []channel.Message
}

// Runner manages one calculation run. A Runner is single-use: construct, run
// exactly one Start, then read the final state.
type Runner struct {
	queue    *channel.Queue
	proc     Process
	msgBus   *bus.MessageBus
	runID    string
	interval time.Duration

	mu      sync.Mutex
	status  Status
	state   State
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// Option mutates a Runner at construction.
type Option func(*Runner)

// WithPollInterval overrides the polling period.
func WithPollInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// New creates a runner over the given worker process and the queue it feeds.
// Notifications go to msgBus tagged with runID; msgBus may be nil.
func New(proc Process, q *channel.Queue, msgBus *bus.MessageBus, runID string, opts ...Option) *Runner {
	r := &Runner{
		queue:    q,
		proc:     proc,
		msgBus:   msgBus,
		runID:    runID,
		interval: DefaultPollInterval,
		status:   StatusIdle,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Status returns the current lifecycle state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// State returns a snapshot of the run state. The events slice is shared;
// callers must not mutate it.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Done is closed when the poll loop has stopped for any reason.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Start spawns the worker process and begins polling. Starting twice is an
// error; a runner never multiplexes two runs onto one channel.
func (r *Runner) Start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errAlreadyStarted
	}
	r.started = true
	r.status = StatusRunning
	r.mu.Unlock()

	if err := r.proc.Start(); err != nil {
		r.mu.Lock()
		r.status = StatusErrored
		r.state.Err = rascalerr.NewSetup(err)
		r.mu.Unlock()
		close(r.done)
		r.publish(bus.MsgRunErrored, r.state.Err)
		return err
	}

	r.publish(bus.MsgRunStarted, nil)
	go r.pollLoop()
	return nil
}

var errAlreadyStarted = errors.New("runner already started")

// Interrupt stops polling and hard-kills the worker. The engine offers no
// cooperative cancellation hook, so this is a kill, not a signal. Events
// drained so far are retained; results and error stay unset. Calling it
// after the run has already terminated is a no-op.
func (r *Runner) Interrupt() {
	r.mu.Lock()
	if !r.started || r.status != StatusRunning {
		r.mu.Unlock()
		return
	}
	r.status = StatusInterrupted
	r.mu.Unlock()

	close(r.stop)
	<-r.done

	// The poll loop may have drained a buffered terminal message after the
	// guard above; a finish or engine error that was already in flight
	// stands, and the run must not also be reported as interrupted.
	r.mu.Lock()
	if r.status != StatusInterrupted {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.proc.Kill()
	r.publish(bus.MsgRunInterrupted, nil)
}

func (r *Runner) pollLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if r.poll() {
				return
			}
		}
	}
}

// poll is one timer tick: note whether the worker has already exited, drain
// everything currently queued, classify each message. Returns true when
// polling should stop. The exit check happens before the drain so the final
// buffered messages are still consumed on this pass.
func (r *Runner) poll() bool {
	exited := r.started && !r.proc.Alive()

	terminal := false
	for _, msg := range r.queue.Drain() {
		switch msg.Kind {
		case channel.KindResult:
			r.mu.Lock()
			r.state.UpdatedProblem = msg.Result.UpdatedProblem
			r.state.Results = msg.Result.Results
			r.status = StatusFinished
			r.mu.Unlock()
			terminal = true
			r.publish(bus.MsgRunFinished, msg.Result)
		case channel.KindError:
			r.mu.Lock()
			r.state.Err = msg.Err
			r.status = StatusErrored
			r.mu.Unlock()
			terminal = true
			r.publish(bus.MsgRunErrored, msg.Err)
		default:
			r.mu.Lock()
			r.state.Events = append(r.state.Events, msg)
			r.mu.Unlock()
			r.publish(bus.MsgRunEvent, msg)
		}
	}

	if terminal {
		return true
	}
	if exited {
		// The worker is gone and the drain produced no terminal message:
		// crash, OOM kill or external signal. Surface it instead of idling
		// forever.
		err := &rascalerr.ProcessError{ExitCode: r.proc.ExitCode()}
		r.mu.Lock()
		r.state.Err = err
		r.status = StatusErrored
		r.mu.Unlock()
		r.publish(bus.MsgRunErrored, err)
		return true
	}
	return false
}

func (r *Runner) publish(t bus.MsgType, payload interface{}) {
	if r.msgBus == nil {
		return
	}
	r.msgBus.Publish(bus.Message{
		Type:    t,
		RunID:   r.runID,
		Payload: payload,
		Time:    time.Now(),
	})
}
