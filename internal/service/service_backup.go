package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/store"
	"github.com/MKhiriev/envelope-sync/internal/utils"
	"github.com/MKhiriev/envelope-sync/internal/validators"
	"github.com/MKhiriev/envelope-sync/models"
)

// DefaultBackupRetention is how many snapshots are kept.
const DefaultBackupRetention = 5

type backupService struct {
	local     store.LocalStore
	backups   store.BackupStore
	validator validators.Validator
	clock     clock.Clock
	ids       *utils.UUIDGenerator
	retention int
	version   string
	logger    *logger.Logger
}

// NewBackupService builds the snapshot service. retention <= 0 selects
// [DefaultBackupRetention].
func NewBackupService(local store.LocalStore, backups store.BackupStore, validator validators.Validator, clk clock.Clock, retention int, version string, log *logger.Logger) BackupService {
	if clk == nil {
		clk = clock.Real()
	}
	if retention <= 0 {
		retention = DefaultBackupRetention
	}

	return &backupService{
		local:     local,
		backups:   backups,
		validator: validator,
		clock:     clk,
		ids:       utils.NewUUIDGenerator(),
		retention: retention,
		version:   version,
		logger:    log,
	}
}

// CreateSnapshot captures the whole local dataset. The read happens in one
// transaction; when it fails nothing is stored. Retention runs after the
// snapshot is stored.
func (s *backupService) CreateSnapshot(ctx context.Context, reason string) (string, error) {
	log := logger.FromContext(ctx)
	started := s.clock.Now()

	data, err := s.local.ReadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("snapshot read local: %w", err)
	}

	size := 0
	if raw, err := json.Marshal(data); err == nil {
		size = len(raw)
	}

	backup := models.Backup{
		Info: models.BackupInfo{
			ID:                s.ids.Generate(),
			Reason:            reason,
			CreatedAt:         started.UTC(),
			TotalRecords:      data.TotalItems(),
			Counts:            data.Counts(),
			SizeEstimateBytes: size,
			DurationMs:        s.clock.Now().Sub(started).Milliseconds(),
			Version:           s.version,
		},
		Data: *data,
	}

	if err = s.backups.Put(ctx, backup); err != nil {
		return "", fmt.Errorf("snapshot store: %w", err)
	}

	if err = s.enforceRetention(ctx); err != nil {
		log.Warn().Err(err).Str("func", "backupService.CreateSnapshot").Msg("backup retention failed")
	}

	log.Info().
		Str("func", "backupService.CreateSnapshot").
		Str("backup_id", backup.Info.ID).
		Str("reason", reason).
		Int("total_items", backup.Info.TotalRecords).
		Msg("snapshot created")
	return backup.Info.ID, nil
}

// enforceRetention deletes every snapshot beyond the newest retention ones in
// one backup-store transaction.
func (s *backupService) enforceRetention(ctx context.Context) error {
	infos, err := s.backups.List(ctx)
	if err != nil {
		return err
	}
	if len(infos) <= s.retention {
		return nil
	}

	stale := make([]string, 0, len(infos)-s.retention)
	for _, info := range infos[s.retention:] {
		stale = append(stale, info.ID)
	}
	return s.backups.Delete(ctx, stale...)
}

// Restore replaces every local collection and the metadata with the
// snapshot, inside one local transaction.
func (s *backupService) Restore(ctx context.Context, backupID string) error {
	backup, err := s.backups.Get(ctx, backupID)
	if err != nil {
		return fmt.Errorf("restore %s: %w", backupID, err)
	}

	if s.validator != nil {
		if err = s.validator.Validate(ctx, backup); err != nil {
			return fmt.Errorf("restore %s: %w", backupID, err)
		}
	}

	if err = s.local.ReplaceAll(ctx, &backup.Data); err != nil {
		return fmt.Errorf("restore %s: %w", backupID, err)
	}

	logger.FromContext(ctx).Warn().
		Str("func", "backupService.Restore").
		Str("backup_id", backupID).
		Int("total_items", backup.Data.TotalItems()).
		Msg("local data restored from snapshot")
	return nil
}

func (s *backupService) List(ctx context.Context) ([]models.BackupInfo, error) {
	return s.backups.List(ctx)
}

// Latest returns the newest snapshot info or [ErrNoBackups].
func (s *backupService) Latest(ctx context.Context) (*models.BackupInfo, error) {
	infos, err := s.backups.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, ErrNoBackups
	}
	return &infos[0], nil
}

func (s *backupService) Delete(ctx context.Context, backupID string) error {
	if _, err := s.backups.Get(ctx, backupID); err != nil {
		if errors.Is(err, store.ErrBackupNotFound) {
			return err
		}
		return fmt.Errorf("delete %s: %w", backupID, err)
	}
	return s.backups.Delete(ctx, backupID)
}
