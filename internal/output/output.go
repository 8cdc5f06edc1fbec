package output

// Mode represents the output mode.
type Mode int

const (
	// ModeTUI is the interactive fit monitor.
	ModeTUI Mode = iota
	// ModePlain is the plain text log mode.
	ModePlain
	// ModeJSON is the structured JSON event-stream mode.
	ModeJSON
	// ModeQuiet suppresses most output.
	ModeQuiet
)
