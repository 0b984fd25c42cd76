package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/MKhiriev/envelope-sync/models"
)

const timeLayout = time.RFC3339

func renderSyncResult(w io.Writer, res models.SyncResult) {
	switch {
	case res.Reason == models.ReasonSyncInProgress:
		fmt.Fprintln(w, "sync skipped: another sync is in progress")
	case res.Success:
		direction := string(res.Direction)
		if direction == "" {
			direction = "none"
		}
		fmt.Fprintf(w, "sync ok: direction=%s records=%d duration=%s\n", direction, res.Counts.Total(), res.Duration.Round(time.Millisecond))
	default:
		fmt.Fprintf(w, "sync failed [%s]: %s\n", res.Category, res.Error)
	}
}

func renderStatus(w io.Writer, s models.QuickStatus) {
	fmt.Fprintf(w, "budget:       %s\n", s.BudgetID)
	fmt.Fprintf(w, "state:        %s\n", s.State)
	fmt.Fprintf(w, "transport:    %t\n", s.Initialized)
	fmt.Fprintf(w, "health:       %s\n", s.Health.Status)
	for _, issue := range s.Health.Issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
	renderCounts(w, s.LocalCounts)
	if s.LastBackupAt != nil {
		fmt.Fprintf(w, "last backup:  %s\n", s.LastBackupAt.Format(timeLayout))
	}
}

func renderCounts(w io.Writer, counts models.Counts) {
	for _, c := range models.AllCollections {
		fmt.Fprintf(w, "  %-16s %d\n", c, counts[c])
	}
}

func renderValidation(w io.Writer, r models.ValidationReport) {
	if r.Valid {
		fmt.Fprintln(w, "valid")
	} else {
		fmt.Fprintf(w, "invalid: %d issue(s)\n", len(r.Issues))
	}
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  [%s] %s\n", issue.Component, issue.Message)
	}
	fmt.Fprintln(w, "local:")
	renderCounts(w, r.LocalCounts)
	if r.RemoteFound {
		fmt.Fprintln(w, "remote:")
		renderCounts(w, r.RemoteCounts)
	}
	if r.Direction != models.DirectionNone {
		fmt.Fprintf(w, "next sync:    %s\n", r.Direction)
	}
	fmt.Fprintf(w, "backups:      %d\n", r.Backups)
}

func renderReset(w io.Writer, action string, r models.ResetResult) {
	switch {
	case r.Success:
		fmt.Fprintf(w, "%s ok (backup %s)\n", action, r.BackupID)
	case r.SafetyAbort:
		fmt.Fprintf(w, "%s aborted: local store is empty (%d records checked via %s)\n", action, r.DetectionDetails.TotalItems, r.DetectionDetails.Source)
	default:
		fmt.Fprintf(w, "%s failed: %s\n", action, r.Error)
	}
}

func renderBackups(w io.Writer, infos []models.BackupInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "no backups")
		return
	}
	for _, info := range infos {
		fmt.Fprintf(w, "%s  %s  %-20s %d records\n", info.ID, info.CreatedAt.Format(timeLayout), info.Reason, info.TotalRecords)
	}
}
