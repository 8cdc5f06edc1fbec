package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)

	statusRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusBad     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)
