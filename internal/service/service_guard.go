package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/store"
	"github.com/MKhiriev/envelope-sync/internal/validators"
	"github.com/MKhiriev/envelope-sync/models"
)

// corruptionGuard refuses destructive remote operations while the local
// store is empty: an empty local store is indistinguishable from a corrupted
// or wiped one, and re-seeding from it would erase the remote copy.
type corruptionGuard struct {
	local     store.LocalStore
	transport CloudTransport
	backups   BackupService
	validator validators.Validator
	clock     clock.Clock
	actor     string
	logger    *logger.Logger
}

// NewCorruptionGuard builds the guard. backups and validator may be nil.
func NewCorruptionGuard(local store.LocalStore, transport CloudTransport, backups BackupService, validator validators.Validator, clk clock.Clock, actor string, log *logger.Logger) CorruptionGuard {
	if clk == nil {
		clk = clock.Real()
	}
	return &corruptionGuard{
		local:     local,
		transport: transport,
		backups:   backups,
		validator: validator,
		clock:     clk,
		actor:     actor,
		logger:    log,
	}
}

// SafeRemoteReset wipes the remote dataset and re-seeds it from local data.
func (g *corruptionGuard) SafeRemoteReset(ctx context.Context) models.ResetResult {
	result, ok := g.gate(ctx, "SafeRemoteReset")
	if !ok {
		return result
	}

	g.snapshot(ctx, &result, "pre-remote-reset")

	if err := g.transport.ClearCloud(ctx); err != nil {
		result.Error = fmt.Sprintf("clear remote: %v", err)
		return result
	}

	fresh, err := g.local.ReadAll(ctx)
	if err != nil {
		result.Error = fmt.Sprintf("re-read local data: %v", err)
		return result
	}
	if g.validator != nil {
		if err = g.validator.Validate(ctx, fresh); err != nil {
			result.Error = fmt.Sprintf("re-seed rejected: %v", err)
			return result
		}
	}
	if err = g.transport.Save(ctx, fresh, g.actor); err != nil {
		result.Error = fmt.Sprintf("re-seed remote: %v", err)
		return result
	}

	result.Success = true
	logger.FromContext(ctx).Warn().
		Str("func", "corruptionGuard.SafeRemoteReset").
		Int("total_items", fresh.TotalItems()).
		Msg("remote dataset reset from local data")
	return result
}

// SafeRemoteClear wipes the remote dataset without re-seeding it. It passes
// the same gate as SafeRemoteReset.
func (g *corruptionGuard) SafeRemoteClear(ctx context.Context) models.ResetResult {
	result, ok := g.gate(ctx, "SafeRemoteClear")
	if !ok {
		return result
	}

	g.snapshot(ctx, &result, "pre-remote-clear")

	if err := g.transport.ClearCloud(ctx); err != nil {
		result.Error = fmt.Sprintf("clear remote: %v", err)
		return result
	}

	result.Success = true
	logger.FromContext(ctx).Warn().Str("func", "corruptionGuard.SafeRemoteClear").Msg("remote dataset cleared")
	return result
}

// gate counts local records straight from the tables, never from the count
// cache, and reports whether the operation may proceed.
func (g *corruptionGuard) gate(ctx context.Context, op string) (models.ResetResult, bool) {
	log := logger.FromContext(ctx)

	counts, err := g.local.Counts(ctx)
	if err != nil {
		return models.ResetResult{Error: fmt.Sprintf("count local records: %v", err)}, false
	}
	meta, err := g.local.GetMetadata(ctx)
	if err != nil {
		return models.ResetResult{Error: fmt.Sprintf("read local metadata: %v", err)}, false
	}

	result := models.ResetResult{
		DetectionDetails: models.DetectionDetails{
			Source:      "sql-count",
			Counts:      counts,
			TotalItems:  counts.Total(),
			HasMetadata: !meta.LastModified.IsZero(),
			CheckedAt:   g.clock.Now(),
		},
	}

	if result.DetectionDetails.TotalItems == 0 {
		result.SafetyAbort = true
		result.Error = ErrLocalStoreEmpty.Error()
		log.Warn().
			Str("func", "corruptionGuard."+op).
			Bool("has_metadata", result.DetectionDetails.HasMetadata).
			Msg("safety abort: local store is empty, remote left untouched")
		return result, false
	}
	return result, true
}

func (g *corruptionGuard) snapshot(ctx context.Context, result *models.ResetResult, reason string) {
	if g.backups == nil {
		return
	}
	id, err := g.backups.CreateSnapshot(ctx, reason)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "corruptionGuard.snapshot").Msg("snapshot before remote reset failed, continuing")
		return
	}
	result.BackupID = id
}
