package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/envelope-sync/models"
)

const (
	historyRows = 10
	backupRows  = 10
	timeLayout  = "2006-01-02 15:04:05"
)

func renderOverview(status models.QuickStatus) string {
	var b strings.Builder

	health := status.Health
	fmt.Fprintf(&b, "Budget:     %s\n", valueOrNA(status.BudgetID))
	fmt.Fprintf(&b, "State:      %s\n", status.State)
	fmt.Fprintf(&b, "Transport:  %s\n", initializedLabel(status.Initialized))
	fmt.Fprintf(&b, "Health:     %s\n", verdictStyle(string(health.Status)).Render(string(health.Status)))

	m := health.Metrics
	fmt.Fprintf(&b, "Attempts:   %d (%d ok, %d failed, %.1f%% errors)\n",
		m.TotalAttempts, m.SuccessfulSyncs, m.FailedSyncs, m.ErrorRate*100)
	fmt.Fprintf(&b, "Average:    %.0fms (recent %.0fms)\n", m.AverageSyncTimeMs, health.RecentAvgMs)
	fmt.Fprintf(&b, "Last sync:  %s\n", formatTimePtr(m.LastSyncTime))
	if m.ConsecutiveFailures > 0 {
		fmt.Fprintf(&b, "Failing:    %d in a row", m.ConsecutiveFailures)
		if health.LastErrorKind != "" {
			fmt.Fprintf(&b, " (%s)", health.LastErrorKind)
		}
		b.WriteString("\n")
	}
	if cur := health.CurrentSync; cur != nil {
		fmt.Fprintf(&b, "Running:    %s %s since %s\n", cur.Type, cur.Stage, cur.StartTime.Format(timeLayout))
	}
	fmt.Fprintf(&b, "Backup:     %s\n", formatTimePtr(status.LastBackupAt))

	b.WriteString("\nRecords\n")
	for _, c := range models.AllCollections {
		fmt.Fprintf(&b, "  %-16s %d\n", c, status.LocalCounts[c])
	}
	fmt.Fprintf(&b, "  %-16s %d\n", "total", status.LocalCounts.Total())

	if len(health.Issues) > 0 {
		b.WriteString("\nIssues\n")
		for _, issue := range health.Issues {
			b.WriteString("  - ")
			b.WriteString(issue)
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderHistory lists the newest attempts first.
func renderHistory(history []models.SyncAttempt) string {
	if len(history) == 0 {
		return "No sync attempts yet"
	}

	var b strings.Builder
	for i := len(history) - 1; i >= 0 && len(history)-i <= historyRows; i-- {
		a := history[i]
		outcome := "running"
		if a.Success != nil {
			outcome = "ok"
			if !*a.Success {
				outcome = "failed"
			}
		}

		duration := "-"
		if a.Duration != nil {
			duration = a.Duration.Round(time.Millisecond).String()
		}

		fmt.Fprintf(&b, "%s  %-9s %-7s %8s", a.StartTime.Format(timeLayout), a.Type, outcome, duration)
		if a.Error != "" {
			fmt.Fprintf(&b, "  %s", fitText(humanizeServerUnavailableError(a.Error), 48))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBackups(backups []models.BackupInfo) string {
	if len(backups) == 0 {
		return "No backups"
	}

	var b strings.Builder
	for i, info := range backups {
		if i == backupRows {
			fmt.Fprintf(&b, "... and %d more", len(backups)-backupRows)
			break
		}
		fmt.Fprintf(&b, "%s  %-24s %6d records  %s\n",
			info.CreatedAt.Format(timeLayout), fitText(info.Reason, 24), info.TotalRecords, info.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func initializedLabel(ok bool) string {
	if ok {
		return "ready"
	}
	return "not initialized"
}

func formatTimePtr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.Format(timeLayout)
}
