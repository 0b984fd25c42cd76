package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const pageWidth = 56

var (
	bodyStyle    = lipgloss.NewStyle().PaddingLeft(2)
	dividerStyle = lipgloss.NewStyle().Faint(true).PaddingLeft(2)
	divider      = dividerStyle.Render(strings.Repeat("─", pageWidth-2))
)

// renderPage lays out a titled page: header, body, divider and the key hints
// of the current view.
func renderPage(title, body, hotKeys string) string {
	if strings.TrimSpace(body) == "" {
		body = "-"
	}

	parts := []string{
		titleStyle.Render(title),
		divider,
		"",
		bodyStyle.Render(body),
		"",
		divider,
	}
	if strings.TrimSpace(hotKeys) != "" {
		parts = append(parts, bodyStyle.Render(helpStyle.Render(hotKeys)))
	}
	parts = append(parts, bodyStyle.Render(helpStyle.Render("ctrl+c: quit")))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// fitText cuts v to at most max runes, marking the cut with an ellipsis.
func fitText(v string, max int) string {
	runes := []rune(v)
	if max <= 0 || len(runes) <= max {
		return v
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
