package tui

import (
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Program wraps a Bubble Tea program with helper methods for sending events.
type Program struct {
	program *tea.Program
	mu      sync.Mutex
}

// NewProgram creates the fit monitor program. interrupt is forwarded to the
// model and called when the user cancels a live run.
func NewProgram(problem, procedure string, interrupt func()) *Program {
	model := New(problem, procedure, interrupt)
	p := tea.NewProgram(model, tea.WithAltScreen())
	return &Program{program: p}
}

// Run starts the TUI (blocking).
func (p *Program) Run() (tea.Model, error) {
	return p.program.Run()
}

// Send sends a message to the TUI.
func (p *Program) Send(msg tea.Msg) {
	p.program.Send(msg)
}

// SendProgress sends a progress update.
func (p *Program) SendProgress(percent float64) {
	p.program.Send(ProgressMsg{Percent: percent})
}

// SendEngineLog sends one engine log line.
func (p *Program) SendEngineLog(level int, text string) {
	p.program.Send(EngineLogMsg{Level: level, Text: text})
}

// SendPlot sends a plot snapshot summary.
func (p *Program) SendPlot(contrast string, points int) {
	p.program.Send(PlotMsg{Contrast: contrast, Points: points})
}

// SendDone sends the completion message.
func (p *Program) SendDone(status, summary, errMsg string) {
	p.program.Send(DoneMsg{Status: status, Summary: summary, Error: errMsg})
}

// SendLog sends a raw log line.
func (p *Program) SendLog(text string) {
	p.program.Send(LogMsg{Text: text})
}

// LogWriter returns an io.Writer that sends each line to the TUI as a
// LogMsg. Use this as the output for log.New() so presenter logging lands in
// the log pane instead of corrupting the display.
func (p *Program) LogWriter() io.Writer {
	return &tuiWriter{p: p}
}

type tuiWriter struct {
	p   *Program
	buf []byte
}

func (w *tuiWriter) Write(data []byte) (int, error) {
	w.buf = append(w.buf, data...)
	for {
		nl := strings.IndexByte(string(w.buf), '\n')
		if nl == -1 {
			break
		}
		line := stripLogPrefix(string(w.buf[:nl]))
		w.buf = w.buf[nl+1:]
		if line == "" {
			continue
		}
		w.p.SendLog(line)
	}
	return len(data), nil
}

// stripLogPrefix removes the standard log prefix "2026/02/14 20:30:59 "
func stripLogPrefix(line string) string {
	// Standard log format: "2006/01/02 15:04:05 <message>"
	if len(line) > 20 && line[4] == '/' && line[7] == '/' && line[10] == ' ' {
		return strings.TrimSpace(line[20:])
	}
	// With microseconds: "2006/01/02 15:04:05.000000 <message>"
	if len(line) > 27 && line[4] == '/' && line[7] == '/' && line[19] == '.' {
		return strings.TrimSpace(line[27:])
	}
	return strings.TrimSpace(line)
}
