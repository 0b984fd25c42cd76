package service

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/store"
	"github.com/MKhiriev/envelope-sync/internal/validators"
	"github.com/MKhiriev/envelope-sync/models"
)

// Validation report components.
const (
	componentLocal   = "local"
	componentCache   = "cache"
	componentRemote  = "remote"
	componentBackups = "backups"
	componentHealth  = "health"
)

type diagnostics struct {
	local        store.LocalStore
	transport    CloudTransport
	backups      BackupService
	health       HealthMonitor
	orchestrator SyncOrchestrator
	guard        CorruptionGuard
	validator    validators.Validator
	clock        clock.Clock
	shared       bool
	logger       *logger.Logger
}

// DiagnosticsDeps are the collaborators of the diagnostics service.
type DiagnosticsDeps struct {
	Local        store.LocalStore
	Transport    CloudTransport
	Backups      BackupService
	Health       HealthMonitor
	Orchestrator SyncOrchestrator
	Guard        CorruptionGuard
	Validator    validators.Validator
}

// NewDiagnostics builds the operator surface.
func NewDiagnostics(deps DiagnosticsDeps, sharedParticipant bool, clk clock.Clock, log *logger.Logger) Diagnostics {
	if clk == nil {
		clk = clock.Real()
	}
	return &diagnostics{
		local:        deps.Local,
		transport:    deps.Transport,
		backups:      deps.Backups,
		health:       deps.Health,
		orchestrator: deps.Orchestrator,
		guard:        deps.Guard,
		validator:    deps.Validator,
		clock:        clk,
		shared:       sharedParticipant,
		logger:       log,
	}
}

// RunValidation inspects local data, the count cache, the remote dataset,
// the backups and the health verdict, and reports every finding. Only a
// failure to read local data is returned as an error.
func (d *diagnostics) RunValidation(ctx context.Context) (models.ValidationReport, error) {
	report := models.ValidationReport{CheckedAt: d.clock.Now()}
	issue := func(component string, err error) {
		report.Issues = append(report.Issues, models.ValidationIssue{Component: component, Message: err.Error()})
	}

	local, err := d.local.ReadAll(ctx)
	if err != nil {
		return report, fmt.Errorf("read local data: %w", err)
	}
	report.LocalCounts = local.Counts()

	if d.validator != nil {
		for _, field := range validators.AllFields {
			if err = d.validator.Validate(ctx, local, field); err != nil {
				issue(componentLocal, err)
			}
		}
	}

	cached, err := d.local.CachedCounts(ctx)
	if err != nil {
		issue(componentCache, err)
	} else if !maps.Equal(cached, report.LocalCounts) {
		issue(componentCache, fmt.Errorf("cached counts %v differ from stored counts %v", cached, report.LocalCounts))
	}

	d.validateRemote(ctx, local, &report, issue)

	if d.backups != nil {
		infos, err := d.backups.List(ctx)
		if err != nil {
			issue(componentBackups, err)
		}
		report.Backups = len(infos)
	}

	if status := d.health.Status(); status.Status == models.VerdictUnhealthy {
		for _, msg := range status.Issues {
			issue(componentHealth, errors.New(msg))
		}
	}

	report.Valid = len(report.Issues) == 0
	logger.FromContext(ctx).Info().
		Str("func", "diagnostics.RunValidation").
		Bool("valid", report.Valid).
		Int("issues", len(report.Issues)).
		Msg("validation finished")
	return report, nil
}

func (d *diagnostics) validateRemote(ctx context.Context, local *models.DataCollection, report *models.ValidationReport, issue func(string, error)) {
	counts, found, err := d.transport.RemoteCounts(ctx)
	if err != nil {
		issue(componentRemote, err)
		return
	}
	report.RemoteFound = found
	report.RemoteCounts = counts

	remote, err := d.transport.LoadFromCloud(ctx)
	if err != nil {
		issue(componentRemote, err)
		return
	}
	if found && remote == nil {
		issue(componentRemote, errors.New("remote manifest is readable but the dataset is not"))
	}
	if remote != nil && d.validator != nil {
		if err = d.validator.Validate(ctx, remote); err != nil {
			issue(componentRemote, err)
		}
	}

	report.Direction = DetermineSyncDirection(local, remote, d.shared)
}

// QuickStatus never touches the remote and reads counts from the cache.
func (d *diagnostics) QuickStatus(ctx context.Context) models.QuickStatus {
	status := models.QuickStatus{
		State:       d.orchestrator.State(),
		Health:      d.health.Status(),
		BudgetID:    d.transport.BudgetID(),
		Initialized: d.transport.BudgetID() != "",
	}

	if counts, err := d.local.CachedCounts(ctx); err == nil {
		status.LocalCounts = counts
	} else {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "diagnostics.QuickStatus").Msg("local counts unavailable")
	}

	if d.backups != nil {
		if latest, err := d.backups.Latest(ctx); err == nil {
			created := latest.CreatedAt
			status.LastBackupAt = &created
		}
	}
	return status
}

// ForceReset runs the guarded remote reset on the sync worker.
func (d *diagnostics) ForceReset(ctx context.Context) models.ResetResult {
	return d.exclusive(ctx, d.guard.SafeRemoteReset)
}

// ClearRemote runs the guarded remote clear on the sync worker.
func (d *diagnostics) ClearRemote(ctx context.Context) models.ResetResult {
	return d.exclusive(ctx, d.guard.SafeRemoteClear)
}

func (d *diagnostics) exclusive(ctx context.Context, op func(context.Context) models.ResetResult) models.ResetResult {
	var result models.ResetResult

	err := d.orchestrator.RunExclusive(ctx, func(ctx context.Context) error {
		attemptID := d.health.RecordStart(models.SyncTypeReset)
		result = op(ctx)

		switch {
		case result.Success:
			d.health.RecordSuccess(attemptID, map[string]any{"backup_id": result.BackupID})
		case result.SafetyAbort:
			d.health.RecordFailure(attemptID, ErrLocalStoreEmpty, map[string]any{"safety_abort": true})
		default:
			d.health.RecordFailure(attemptID, errors.New(result.Error), nil)
		}
		return nil
	})
	if err != nil {
		result.Success = false
		result.Error = err.Error()
	}
	return result
}
