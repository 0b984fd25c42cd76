package tui

import "github.com/charmbracelet/lipgloss"

var (
	appStyle        = lipgloss.NewStyle().Padding(1, 2)
	titleStyle      = lipgloss.NewStyle().Bold(true)
	helpStyle       = lipgloss.NewStyle().Faint(true)
	errorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	overlayBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
	activeTabStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	tabStyle        = lipgloss.NewStyle().Faint(true)
)

var verdictStyles = map[string]lipgloss.Style{
	"healthy":   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	"slow":      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	"degraded":  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	"unhealthy": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
}

func verdictStyle(verdict string) lipgloss.Style {
	if s, ok := verdictStyles[verdict]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
