package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

func (m Model) View() string {
	if m.width == 0 {
		return "starting..."
	}

	var b strings.Builder

	title := fmt.Sprintf(" rascal — %s (%s) ", m.problem, m.procedure)
	b.WriteString(titleStyle.Render(truncate(title, m.width-2)))
	b.WriteString("\n\n")

	elapsed := time.Since(m.startTime).Round(time.Second)
	switch {
	case !m.done:
		b.WriteString(statusRunning.Render(fmt.Sprintf("running  %s", elapsed)))
	case m.doneStatus == "finished":
		b.WriteString(statusOK.Render(fmt.Sprintf("finished in %s", elapsed)))
	case m.doneStatus == "interrupted":
		b.WriteString(statusBad.Render("interrupted"))
	default:
		b.WriteString(statusBad.Render("errored"))
	}
	if m.lastPlot != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("   plot: %s", m.lastPlot)))
	}
	b.WriteString("\n\n")

	b.WriteString("  " + m.progress.ViewAs(m.percent))
	b.WriteString("\n\n")

	b.WriteString(m.renderLog())

	if m.done && m.finalMsg != "" {
		b.WriteString("\n")
		if m.doneStatus == "finished" {
			b.WriteString(statusOK.Render(truncate(m.finalMsg, m.width-2)))
		} else {
			b.WriteString(statusBad.Render(truncate(m.finalMsg, m.width-2)))
		}
	}
	b.WriteString("\n")
	if m.done {
		b.WriteString(dimStyle.Render("press q to exit"))
	} else {
		b.WriteString(dimStyle.Render("q interrupt · ↑/↓ scroll"))
	}
	return b.String()
}

func (m Model) renderLog() string {
	paneHeight := m.height - 12
	if paneHeight < 3 {
		paneHeight = 3
	}
	paneWidth := m.width - 6
	if paneWidth < 10 {
		paneWidth = 10
	}

	lines := m.logLines
	end := len(lines) - m.scroll
	if end < 0 {
		end = 0
	}
	start := end - paneHeight
	if start < 0 {
		start = 0
	}

	var rows []string
	for _, line := range lines[start:end] {
		rows = append(rows, logStyle.Render(truncate(line, paneWidth)))
	}
	for len(rows) < paneHeight {
		rows = append(rows, "")
	}
	return paneStyle.Width(paneWidth + 2).Render(strings.Join(rows, "\n"))
}

// truncate shortens text to maxWidth display cells, accounting for
// double-width runes.
func truncate(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}
	for runewidth.StringWidth(text) > maxWidth-1 {
		r := []rune(text)
		text = string(r[:len(r)-1])
	}
	return text + "…"
}
