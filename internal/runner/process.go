package runner

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/jeremyspencer39171/rascal/internal/channel"
	"github.com/jeremyspencer39171/rascal/internal/project"
)

// Process is the runner's view of the worker OS process. The exec-backed
// implementation below is the real one; tests substitute fakes.
type Process interface {
	// Start launches the worker with the request payload.
	Start() error
	// Kill hard-terminates the worker. Killing an already-exited process is
	// a no-op.
	Kill() error
	// Alive reports whether the worker has started and not yet exited.
	Alive() bool
	// ExitCode returns the worker's exit code, or -1 while running or when
	// unknown.
	ExitCode() int
}

// WorkerProcess re-executes the current binary with the hidden "worker"
// subcommand. The request travels as JSON on the child's stdin; messages
// come back as frames on its stdout and are pumped into the queue.
type WorkerProcess struct {
	req   *project.Request
	queue *channel.Queue
	args  []string

	mu       sync.Mutex
	cmd      *exec.Cmd
	started  bool
	exited   bool
	exitCode int
}

// NewWorkerProcess prepares a worker process for the request. Extra args are
// appended to the worker subcommand (the caller passes its config flag
// through so the child builds the same engine).
func NewWorkerProcess(req *project.Request, q *channel.Queue, args ...string) *WorkerProcess {
	return &WorkerProcess{req: req, queue: q, args: args, exitCode: -1}
}

func (p *WorkerProcess) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("worker already started")
	}

	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate own binary: %w", err)
	}
	payload, err := json.Marshal(p.req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	args := append([]string{"worker"}, p.args...)
	cmd := exec.Command(binary, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("worker stdout: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn worker: %w", err)
	}
	p.cmd = cmd
	p.started = true

	go deliverRequest(stdin, payload, log.Printf)
	go p.supervise(stdout, cmd.Wait)
	return nil
}

// deliverRequest writes the request payload to the worker's stdin. A failed
// write means the child is already gone or will choke on the truncated
// request and report that itself; either way the pipe still gets closed.
func deliverRequest(stdin io.WriteCloser, payload []byte, logf func(string, ...any)) {
	if _, err := stdin.Write(payload); err != nil {
		logf("worker request delivery failed: %v", err)
	}
	stdin.Close()
}

// supervise drains the worker's stdout into the queue, then reaps the
// process. The exit flag is only set after the pipe hits EOF, so a terminal
// frame written just before exit is always queued before the exit becomes
// observable. Waiting after the pump also keeps to the os/exec contract
// that Wait must not run before pipe reads complete.
func (p *WorkerProcess) supervise(stdout io.Reader, wait func() error) {
	channel.Pump(stdout, p.queue)
	err := wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exited = true
	p.exitCode = 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		p.exitCode = exitErr.ExitCode()
	} else if err != nil {
		p.exitCode = -1
	}
}

func (p *WorkerProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil || p.exited {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *WorkerProcess) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started && !p.exited
}

func (p *WorkerProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.exited {
		return -1
	}
	return p.exitCode
}
