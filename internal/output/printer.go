package output

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"

	"github.com/jeremyspencer39171/rascal/internal/channel"
	"github.com/jeremyspencer39171/rascal/internal/results"
)

// Printer wraps pterm for styled plain-mode output. All methods are no-ops
// in TUI, JSON, or Quiet mode.
type Printer struct {
	mode    Mode
	verbose bool
	writer  io.Writer
}

// NewPrinter creates a Printer for the given output mode.
func NewPrinter(mode Mode, verbose bool) *Printer {
	return &Printer{mode: mode, verbose: verbose, writer: os.Stdout}
}

// NewPrinterWithWriter creates a Printer with a custom writer (for testing).
func NewPrinterWithWriter(mode Mode, verbose bool, w io.Writer) *Printer {
	return &Printer{mode: mode, verbose: verbose, writer: w}
}

// active returns true if this printer should produce output.
func (p *Printer) active() bool {
	return p.mode == ModePlain
}

// Header prints a large styled header.
func (p *Printer) Header(text string) {
	if !p.active() {
		return
	}
	pterm.DefaultHeader.
		WithWriter(p.writer).
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack, pterm.Bold)).
		Println(text)
}

// Info prints an informational message.
func (p *Printer) Info(format string, args ...interface{}) {
	if !p.active() {
		return
	}
	pterm.Info.WithWriter(p.writer).Printfln(format, args...)
}

// Success prints a success message.
func (p *Printer) Success(format string, args ...interface{}) {
	if !p.active() {
		return
	}
	pterm.Success.WithWriter(p.writer).Printfln(format, args...)
}

// Warning prints a warning message.
func (p *Printer) Warning(format string, args ...interface{}) {
	if !p.active() {
		return
	}
	pterm.Warning.WithWriter(p.writer).Printfln(format, args...)
}

// Error prints an error message.
func (p *Printer) Error(format string, args ...interface{}) {
	if !p.active() {
		return
	}
	pterm.Error.WithWriter(p.writer).Printfln(format, args...)
}

// Printf prints raw formatted text without a pterm prefix.
func (p *Printer) Printf(format string, args ...interface{}) {
	if !p.active() {
		return
	}
	fmt.Fprintf(p.writer, format, args...)
}

// Event prints one interim channel message.
func (p *Printer) Event(msg channel.Message) {
	if !p.active() {
		return
	}
	switch msg.Kind {
	case channel.KindLog:
		if msg.Log.Level >= channel.LevelWarning {
			p.Warning("%s", msg.Log.Text)
		} else {
			p.Info("%s", msg.Log.Text)
		}
	case channel.KindProgress:
		p.Info("progress %.0f%%", msg.Progress.Percent*100)
	case channel.KindPlot:
		if p.verbose {
			p.Info("plot update (%d points)", len(msg.Plot.Q))
		}
	}
}

// Results prints the final fit summary as a table.
func (p *Printer) Results(res *results.Results) {
	if !p.active() || res == nil {
		return
	}
	pterm.DefaultSection.WithWriter(p.writer).Printfln("Fit results (%s)", res.Procedure)
	p.Info("chi-squared: %.6g over %d iterations", res.ChiSquared, res.Iterations)

	if len(res.FittedValues) > 0 {
		rows := [][]string{}
		for name, v := range res.FittedValues {
			row := []string{name, fmt.Sprintf("%.6g", v)}
			if res.Bayes != nil {
				if s, ok := res.Bayes.Parameters[name]; ok {
					row = append(row, fmt.Sprintf("%.6g", s.Mean), fmt.Sprintf("[%.6g, %.6g]", s.CI95[0], s.CI95[1]))
				}
			}
			rows = append(rows, row)
		}
		headers := []string{"parameter", "fitted"}
		if res.Bayes != nil {
			headers = append(headers, "posterior mean", "95% CI")
		}
		p.Table(headers, rows)
	}
	if res.Bayes != nil {
		p.Info("log evidence: %.6g", res.Bayes.LogEvidence)
	}
}

// Table prints a table with headers and rows.
func (p *Printer) Table(headers []string, rows [][]string) {
	if !p.active() {
		return
	}
	data := pterm.TableData{headers}
	data = append(data, rows...)
	pterm.DefaultTable.
		WithWriter(p.writer).
		WithHasHeader().
		WithData(data).
		Render() //nolint:errcheck
}
