package models

import "time"

// SyncDirection is the outcome of direction arbitration for one sync cycle.
type SyncDirection string

const (
	DirectionNone          SyncDirection = ""
	DirectionToRemote      SyncDirection = "toRemote"
	DirectionFromRemote    SyncDirection = "fromRemote"
	DirectionBidirectional SyncDirection = "bidirectional"
)

// SyncState is the orchestrator's externally visible state.
type SyncState string

const (
	SyncStateIdle      SyncState = "idle"
	SyncStateScheduled SyncState = "scheduled"
	SyncStateSyncing   SyncState = "syncing"
)

// TriggerKind tells the scheduler where a sync request came from.
type TriggerKind string

const (
	TriggerDataChange TriggerKind = "data-change"
	TriggerManual     TriggerKind = "manual"
	TriggerPeriodic   TriggerKind = "periodic"
	TriggerPaycheck   TriggerKind = "paycheck"
	TriggerImport     TriggerKind = "import"
)

// Trigger is a request to schedule a sync. Critical triggers use the short
// debounce delay.
type Trigger struct {
	Kind     TriggerKind `json:"kind"`
	Critical bool        `json:"critical"`
	Reason   string      `json:"reason,omitempty"`
}

// IsCritical reports whether the trigger should use the short debounce delay.
// Paycheck entries and imports are always critical.
func (t Trigger) IsCritical() bool {
	return t.Critical || t.Kind == TriggerPaycheck || t.Kind == TriggerImport
}

// SyncType labels a recorded attempt.
type SyncType string

const (
	SyncTypeForced    SyncType = "forced"
	SyncTypeScheduled SyncType = "scheduled"
	SyncTypeReset     SyncType = "reset"
)

// SyncStage is the progress marker of an in-flight attempt.
type SyncStage string

const (
	StageStarted     SyncStage = "started"
	StageBackup      SyncStage = "backup"
	StageReadLocal   SyncStage = "read-local"
	StageReadRemote  SyncStage = "read-remote"
	StageArbitration SyncStage = "arbitration"
	StagePush        SyncStage = "push"
	StagePull        SyncStage = "pull"
	StageMerge       SyncStage = "merge"
	StageCompleted   SyncStage = "completed"
	StageFailed      SyncStage = "failed"
)

// ReasonSyncInProgress is returned by ForceSync when another cycle is running.
const ReasonSyncInProgress = "Sync in progress"

// SyncResult is what callers of ForceSync always receive; failures are
// reported here rather than through an error return.
type SyncResult struct {
	Success   bool          `json:"success"`
	Direction SyncDirection `json:"direction,omitempty"`
	Counts    Counts        `json:"countsByCollection,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Error     string        `json:"error,omitempty"`
	Category  ErrorCategory `json:"category,omitempty"`
	AttemptID string        `json:"attemptId,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// SyncAttempt is the in-memory lifecycle record of one sync cycle.
type SyncAttempt struct {
	ID        string         `json:"id"`
	Type      SyncType       `json:"type"`
	StartTime time.Time      `json:"startTime"`
	Stage     SyncStage      `json:"stage"`
	EndTime   *time.Time     `json:"endTime,omitempty"`
	Duration  *time.Duration `json:"duration,omitempty"`
	Success   *bool          `json:"success,omitempty"`
	Error     string         `json:"error,omitempty"`
	Category  ErrorCategory  `json:"category,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Finalized reports whether the attempt has been closed.
func (a SyncAttempt) Finalized() bool {
	return a.Success != nil
}
