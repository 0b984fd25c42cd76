package models

import "time"

// DetectionDetails describes how the corruption guard judged the local store.
type DetectionDetails struct {
	Source      string    `json:"source"`
	Counts      Counts    `json:"counts"`
	TotalItems  int       `json:"totalItems"`
	HasMetadata bool      `json:"hasMetadata"`
	CheckedAt   time.Time `json:"checkedAt"`
}

// ResetResult is returned by destructive remote operations.
type ResetResult struct {
	Success          bool             `json:"success"`
	SafetyAbort      bool             `json:"safetyAbort,omitempty"`
	DetectionDetails DetectionDetails `json:"detectionDetails"`
	BackupID         string           `json:"backupId,omitempty"`
	Error            string           `json:"error,omitempty"`
}

// ValidationIssue is one finding of a validation run.
type ValidationIssue struct {
	Component string `json:"component"`
	Message   string `json:"message"`
}

// ValidationReport is the result of a full diagnostic validation.
type ValidationReport struct {
	Valid        bool              `json:"valid"`
	LocalCounts  Counts            `json:"localCounts"`
	RemoteCounts Counts            `json:"remoteCounts,omitempty"`
	RemoteFound  bool              `json:"remoteFound"`
	Backups      int               `json:"backups"`
	Direction    SyncDirection     `json:"wouldSync,omitempty"`
	Issues       []ValidationIssue `json:"issues,omitempty"`
	CheckedAt    time.Time         `json:"checkedAt"`
}

// QuickStatus is the cheap health snapshot used by status commands.
type QuickStatus struct {
	State        SyncState    `json:"state"`
	Health       HealthStatus `json:"health"`
	BudgetID     string       `json:"budgetId"`
	Initialized  bool         `json:"transportInitialized"`
	LocalCounts  Counts       `json:"localCounts,omitempty"`
	LastBackupAt *time.Time   `json:"lastBackupAt,omitempty"`
}
