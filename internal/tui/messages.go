package tui

import (
	"time"

	"github.com/MKhiriev/envelope-sync/models"
)

type tickMsg time.Time

type snapshotMsg struct {
	status  models.QuickStatus
	history []models.SyncAttempt
	backups []models.BackupInfo
	err     error
}

type syncDoneMsg struct {
	result models.SyncResult
}

type resetDoneMsg struct {
	action pendingAction
	result models.ResetResult
}

type copiedMsg struct {
	err error
}

type clearStatusMsg struct{}
