// Package bridge manages the external interpreter some custom model files
// need. The bridge is an explicit dependency handed to the worker, with an
// acquire/ready-check/release lifecycle, rather than ambient global state.
package bridge

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Handle identifies a running interpreter instance.
type Handle struct {
	Name string
}

// Bridge is an external language runtime handle acquired lazily by the
// worker before the engine is invoked.
type Bridge interface {
	// GetOrStart returns a ready handle, starting the interpreter if it is
	// not already up. It fails rather than blocks forever.
	GetOrStart() (Handle, error)
	// Exit tears the interpreter down. Safe to call when never started.
	Exit() error
}

// None is the bridge used when every custom file is native. GetOrStart never
// fails and Exit does nothing.
type None struct{}

func (None) GetOrStart() (Handle, error) { return Handle{Name: "none"}, nil }
func (None) Exit() error                 { return nil }

// Matlab starts a shared MATLAB process and waits for it to announce
// readiness on stdout.
type Matlab struct {
	// Command is the interpreter executable; empty means "matlab".
	Command string
	// Args precede the default batch-mode flags.
	Args []string
	// StartupTimeout bounds the wait for the ready line; zero means 60s.
	StartupTimeout time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	handle Handle
}

func (m *Matlab) GetOrStart() (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd != nil {
		return m.handle, nil
	}

	command := m.Command
	if command == "" {
		command = "matlab"
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return Handle{}, fmt.Errorf("matlab not found, configure bridge.command with the install location: %w", err)
	}

	args := append([]string{}, m.Args...)
	args = append(args, "-nodisplay", "-nosplash")
	cmd := exec.Command(path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Handle{}, fmt.Errorf("matlab stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Handle{}, fmt.Errorf("start matlab: %w", err)
	}

	timeout := m.StartupTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	name, err := awaitReady(stdout, timeout)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return Handle{}, fmt.Errorf("matlab could not be started: %w", err)
	}

	m.cmd = cmd
	m.handle = Handle{Name: name}
	return m.handle, nil
}

func (m *Matlab) Exit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmd == nil {
		return nil
	}
	err := m.cmd.Process.Kill()
	m.cmd.Wait()
	m.cmd = nil
	return err
}

// awaitReady scans interpreter stdout for a "READY <name>" line.
func awaitReady(r io.Reader, timeout time.Duration) (string, error) {
	type ready struct {
		name string
		err  error
	}
	ch := make(chan ready, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if strings.HasPrefix(line, "READY") {
				ch <- ready{name: strings.TrimSpace(strings.TrimPrefix(line, "READY"))}
				return
			}
		}
		ch <- ready{err: fmt.Errorf("interpreter exited before becoming ready")}
	}()
	select {
	case r := <-ch:
		return r.name, r.err
	case <-time.After(timeout):
		return "", fmt.Errorf("interpreter did not become ready within %s", timeout)
	}
}
