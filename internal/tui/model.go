package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	maxLogLines  = 200
	tickInterval = time.Second
)

// Model is the Bubble Tea model for the fit monitor.
type Model struct {
	// Content
	problem   string
	procedure string
	logLines  []string
	lastPlot  string

	// State
	percent    float64
	startTime  time.Time
	done       bool
	doneStatus string
	finalMsg   string

	// UI state
	width     int
	height    int
	scroll    int // log scroll offset from the bottom
	progress  progress.Model
	interrupt func()
}

// New creates the fit monitor model. interrupt is invoked when the user
// presses ctrl+c or q while the run is still live.
func New(problem, procedure string, interrupt func()) Model {
	p := progress.New(progress.WithDefaultGradient())
	return Model{
		problem:   problem,
		procedure: procedure,
		startTime: time.Now(),
		progress:  p,
		interrupt: interrupt,
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return TickMsg{} })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.done {
				return m, tea.Quit
			}
			if m.interrupt != nil {
				m.interrupt()
			}
			return m, nil
		case "up", "k":
			if m.scroll < len(m.logLines)-1 {
				m.scroll++
			}
			return m, nil
		case "down", "j":
			if m.scroll > 0 {
				m.scroll--
			}
			return m, nil
		case "enter":
			if m.done {
				return m, tea.Quit
			}
			return m, nil
		}

	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tick()

	case ProgressMsg:
		m.percent = msg.Percent
		return m, nil

	case EngineLogMsg:
		m.appendLog(msg.Text)
		return m, nil

	case LogMsg:
		m.appendLog(msg.Text)
		return m, nil

	case PlotMsg:
		m.lastPlot = msg.Contrast
		return m, nil

	case DoneMsg:
		m.done = true
		m.doneStatus = msg.Status
		m.finalMsg = msg.Summary
		if msg.Error != "" {
			m.finalMsg = msg.Error
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}
