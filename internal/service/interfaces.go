package service

import (
	"context"

	"github.com/MKhiriev/envelope-sync/models"
)

// CloudTransport is the part of the chunked transport the services use.
type CloudTransport interface {
	Save(ctx context.Context, data *models.DataCollection, actor string) error
	LoadFromCloud(ctx context.Context) (*models.DataCollection, error)
	ClearCloud(ctx context.Context) error
	RemoteCounts(ctx context.Context) (models.Counts, bool, error)
	BudgetID() string
	Ping(ctx context.Context) error
}

// SyncOrchestrator schedules and runs sync cycles on a single worker.
type SyncOrchestrator interface {
	Start(ctx context.Context) error
	Stop()

	// ForceSync runs one cycle now. It never returns an error; failures and
	// the "sync in progress" rejection are reported in the result.
	ForceSync(ctx context.Context) models.SyncResult

	// ScheduleSync debounces a sync request.
	ScheduleSync(trigger models.Trigger)

	// RunExclusive runs fn on the sync worker so it cannot overlap a cycle.
	RunExclusive(ctx context.Context, fn func(ctx context.Context) error) error

	State() models.SyncState
}

// BackupService snapshots and restores the local dataset.
type BackupService interface {
	CreateSnapshot(ctx context.Context, reason string) (string, error)
	Restore(ctx context.Context, backupID string) error
	List(ctx context.Context) ([]models.BackupInfo, error)
	Latest(ctx context.Context) (*models.BackupInfo, error)
	Delete(ctx context.Context, backupID string) error
}

// HealthMonitor records sync attempts and derives a health verdict.
type HealthMonitor interface {
	RecordStart(syncType models.SyncType) string
	UpdateProgress(attemptID string, stage models.SyncStage)
	RecordSuccess(attemptID string, meta map[string]any)
	RecordFailure(attemptID string, err error, meta map[string]any)

	// ReportError counts a failure that did not end an attempt.
	ReportError(err error)

	Status() models.HealthStatus
	Metrics() models.HealthMetrics
	History() []models.SyncAttempt
	Current() *models.SyncAttempt
}

// CorruptionGuard gates destructive remote operations on a non-empty local
// store.
type CorruptionGuard interface {
	SafeRemoteReset(ctx context.Context) models.ResetResult
	SafeRemoteClear(ctx context.Context) models.ResetResult
}

// Diagnostics is the operator surface shared by the CLI, the debug API and
// the watch dashboard.
type Diagnostics interface {
	RunValidation(ctx context.Context) (models.ValidationReport, error)
	QuickStatus(ctx context.Context) models.QuickStatus
	ForceReset(ctx context.Context) models.ResetResult
	ClearRemote(ctx context.Context) models.ResetResult
}

// DataService is the local data entry point for import and export.
type DataService interface {
	// Import loads data into the local store. With merge the records are
	// upserted, otherwise the local dataset is replaced.
	Import(ctx context.Context, data *models.DataCollection, merge bool) error
	Export(ctx context.Context) (*models.DataCollection, error)
}

// EventBus carries mutation and data-changed notifications between
// components.
type EventBus interface {
	PublishMutation(ctx context.Context, trigger models.Trigger) error
	PublishDataChanged(ctx context.Context, reason string) error

	// Subscriptions deliver asynchronously until ctx is done.
	SubscribeMutations(ctx context.Context, fn func(models.Trigger)) error
	SubscribeDataChanged(ctx context.Context, fn func(reason string)) error

	Close() error
}

// TokenService issues and verifies document API tokens. A token grants
// access to exactly one budget.
type TokenService interface {
	CreateToken(ctx context.Context, budgetID string) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// DocumentService serves the document API of the docserver.
type DocumentService interface {
	Get(ctx context.Context, budgetID, path string) ([]byte, error)
	Put(ctx context.Context, budgetID, path string, body []byte) error
	Delete(ctx context.Context, budgetID, path string) error
	List(ctx context.Context, budgetID, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

// AppInfoService reports the running build.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}
