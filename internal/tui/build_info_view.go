// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MKhiriev/envelope-sync/models"
)

var labelStyle = lipgloss.NewStyle().Faint(true).Width(10)

func renderBuildInfoWindow(info models.AppBuildInfo) string {
	rows := [][2]string{
		{"app", "budget-sync"},
		{"version", info.BuildVersion()},
		{"date", info.BuildDate()},
		{"commit", info.BuildCommit()},
		{"go", runtime.Version()},
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(row[0]), valueOrNA(row[1])))
	}

	return renderPage("ABOUT", strings.Join(lines, "\n"), "esc: back")
}

func valueOrNA(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "N/A"
	}
	return v
}
