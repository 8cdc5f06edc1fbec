package tui

// TUI event types — sent from the presenter to the fit monitor via
// tea.Program.Send()

// ProgressMsg is a fractional-completion update from the engine.
type ProgressMsg struct {
	Percent float64
}

// EngineLogMsg is one log line forwarded from the engine.
type EngineLogMsg struct {
	Level int
	Text  string
}

// PlotMsg summarises the latest intermediate plot snapshot.
type PlotMsg struct {
	Contrast string
	Points   int
}

// DoneMsg indicates the run is over, one way or another.
type DoneMsg struct {
	Status  string // "finished", "interrupted", "errored"
	Summary string
	Error   string
}

// TickMsg is a periodic timer for updating the elapsed clock.
type TickMsg struct{}

// LogMsg is a raw log line (fallback for non-structured output).
type LogMsg struct {
	Text string
}
