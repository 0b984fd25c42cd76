package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/transport"
	"github.com/MKhiriev/envelope-sync/models"
)

// runCycle performs one full sync: read both sides, arbitrate, then push,
// pull or merge. Failures are recorded and returned in the result; local
// data is only written after the remote read succeeded.
func (o *syncOrchestrator) runCycle(ctx context.Context, syncType models.SyncType) models.SyncResult {
	o.setState(models.SyncStateSyncing)
	started := o.clock.Now()

	attemptID := o.Health.RecordStart(syncType)
	log := logger.FromContext(ctx).With().Str("attempt_id", attemptID).Str("budget_id", o.Transport.BudgetID()).Logger()
	ctx = log.WithContext(ctx)

	direction, data, err := o.cycle(ctx, attemptID)

	result := models.SyncResult{
		Direction: direction,
		AttemptID: attemptID,
		Duration:  o.clock.Now().Sub(started),
	}
	if err != nil {
		result.Error = err.Error()
		result.Category = CategorizeError(err)
		o.Health.RecordFailure(attemptID, err, map[string]any{"direction": string(direction)})

		log.Error().Err(err).
			Str("func", "syncOrchestrator.runCycle").
			Str("direction", string(direction)).
			Str("category", string(result.Category)).
			Msg("sync failed")
		return result
	}

	result.Success = true
	result.Counts = data.Counts()
	o.Health.RecordSuccess(attemptID, map[string]any{
		"direction":   string(direction),
		"total_items": data.TotalItems(),
	})

	log.Info().
		Str("func", "syncOrchestrator.runCycle").
		Str("direction", string(direction)).
		Int("total_items", data.TotalItems()).
		Dur("duration", result.Duration).
		Msg("sync completed")
	return result
}

// cycle returns the chosen direction and the dataset both sides hold
// afterwards.
func (o *syncOrchestrator) cycle(ctx context.Context, attemptID string) (models.SyncDirection, *models.DataCollection, error) {
	o.Health.UpdateProgress(attemptID, models.StageReadLocal)
	local, err := o.Local.ReadAll(ctx)
	if err != nil {
		return models.DirectionNone, nil, fmt.Errorf("read local data: %w", err)
	}

	o.Health.UpdateProgress(attemptID, models.StageReadRemote)
	remote, err := o.Transport.LoadFromCloud(ctx)
	if err != nil {
		if !brokenRemote(err) || local.IsEmpty() {
			return models.DirectionNone, nil, fmt.Errorf("read remote data: %w", err)
		}
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "syncOrchestrator.cycle").
			Int("local_items", local.TotalItems()).
			Msg("remote dataset is incomplete, replacing it with local data")
		return models.DirectionToRemote, local, o.push(ctx, attemptID, local)
	}

	o.Health.UpdateProgress(attemptID, models.StageArbitration)
	direction := DetermineSyncDirection(local, remote, o.settings.SharedParticipant)

	logger.FromContext(ctx).Debug().
		Str("func", "syncOrchestrator.cycle").
		Str("direction", string(direction)).
		Int("local_items", local.TotalItems()).
		Int("remote_items", remote.TotalItems()).
		Bool("remote_found", remote != nil).
		Msg("sync direction determined")

	switch direction {
	case models.DirectionToRemote:
		return direction, local, o.push(ctx, attemptID, local)

	case models.DirectionFromRemote:
		if remote == nil {
			// shared participant, nothing on either side yet
			return direction, local, nil
		}
		return direction, remote, o.pull(ctx, attemptID, remote)

	default:
		merged, err := o.merge(ctx, attemptID, local, remote)
		return direction, merged, err
	}
}

// brokenRemote reports whether the remote dataset exists but cannot be
// assembled, as opposed to being unreachable.
func brokenRemote(err error) bool {
	return errors.Is(err, transport.ErrMissingChunk) || errors.Is(err, transport.ErrInconsistentRemote)
}

func (o *syncOrchestrator) push(ctx context.Context, attemptID string, local *models.DataCollection) error {
	if err := o.validate(ctx, local); err != nil {
		return fmt.Errorf("push rejected: %w", err)
	}

	o.snapshot(ctx, attemptID, "pre-sync push")

	o.Health.UpdateProgress(attemptID, models.StagePush)
	if err := o.Transport.Save(ctx, local, o.settings.Actor); err != nil {
		return fmt.Errorf("push to remote: %w", err)
	}
	return nil
}

func (o *syncOrchestrator) pull(ctx context.Context, attemptID string, remote *models.DataCollection) error {
	if err := o.validate(ctx, remote); err != nil {
		return fmt.Errorf("pull rejected: %w", err)
	}

	o.snapshot(ctx, attemptID, "pre-sync pull")

	o.Health.UpdateProgress(attemptID, models.StagePull)
	if err := o.Local.ReplaceAll(ctx, remote); err != nil {
		return fmt.Errorf("apply remote data: %w", err)
	}

	o.dataChanged(ctx, "pull")
	return nil
}

// merge resolves equal timestamps. Identical record sets need no work;
// otherwise the union is pushed and then written locally, so a failed push
// leaves local data untouched.
func (o *syncOrchestrator) merge(ctx context.Context, attemptID string, local, remote *models.DataCollection) (*models.DataCollection, error) {
	o.Health.UpdateProgress(attemptID, models.StageMerge)

	localFP, err := local.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint local data: %w", err)
	}
	remoteFP, err := remote.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint remote data: %w", err)
	}
	if localFP == remoteFP {
		return local, nil
	}

	merged := MergeCollections(local, remote, o.clock.Now())
	if err = o.validate(ctx, merged); err != nil {
		return nil, fmt.Errorf("merge rejected: %w", err)
	}

	o.snapshot(ctx, attemptID, "pre-sync merge")

	o.Health.UpdateProgress(attemptID, models.StagePush)
	if err = o.Transport.Save(ctx, merged, o.settings.Actor); err != nil {
		return nil, fmt.Errorf("push merged data: %w", err)
	}

	if err = o.Local.ReplaceAll(ctx, merged); err != nil {
		return nil, fmt.Errorf("apply merged data: %w", err)
	}
	o.dataChanged(ctx, "merge")
	return merged, nil
}

func (o *syncOrchestrator) validate(ctx context.Context, data *models.DataCollection) error {
	if o.Validator == nil {
		return nil
	}
	return o.Validator.Validate(ctx, data)
}

// snapshot backs up local data before any write to either side. A failed
// snapshot is logged and the sync goes on.
func (o *syncOrchestrator) snapshot(ctx context.Context, attemptID, reason string) {
	if o.Backups == nil {
		return
	}

	o.Health.UpdateProgress(attemptID, models.StageBackup)
	if _, err := o.Backups.CreateSnapshot(ctx, reason); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "syncOrchestrator.snapshot").Msg("pre-sync snapshot failed, continuing")
	}
}

func (o *syncOrchestrator) dataChanged(ctx context.Context, reason string) {
	o.Local.InvalidateCache()
	if o.Events == nil {
		return
	}
	if err := o.Events.PublishDataChanged(ctx, reason); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "syncOrchestrator.dataChanged").Msg("publish data changed")
	}
}
