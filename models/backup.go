package models

import "time"

// BackupInfo is the capture metadata stored next to every snapshot.
type BackupInfo struct {
	ID                string    `json:"id"`
	Reason            string    `json:"reason"`
	CreatedAt         time.Time `json:"createdAt"`
	TotalRecords      int       `json:"totalRecords"`
	Counts            Counts    `json:"counts"`
	SizeEstimateBytes int       `json:"sizeEstimateBytes"`
	DurationMs        int64     `json:"durationMs"`
	Version           string    `json:"version"`
}

// Backup is a point-in-time copy of the full local dataset.
type Backup struct {
	Info BackupInfo     `json:"info"`
	Data DataCollection `json:"data"`
}
