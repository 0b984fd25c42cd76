package store

import (
	"context"

	"github.com/MKhiriev/envelope-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// LocalStore is the embedded store holding the authoritative local copy of
// the budget. Reads and replacements of the whole dataset are transactional.
type LocalStore interface {
	// ReadAll returns every collection (sorted by id) and the metadata,
	// read inside one transaction.
	ReadAll(ctx context.Context) (*models.DataCollection, error)

	// ReplaceAll swaps every collection and the metadata for data inside one
	// transaction. Metadata is written as given, LastModified included.
	ReplaceAll(ctx context.Context, data *models.DataCollection) error

	// SaveRecords upserts the records present in data and advances the
	// metadata LastModified to max(now, previous+1ms).
	SaveRecords(ctx context.Context, data *models.DataCollection) error

	// DeleteRecords removes records of collection c and advances LastModified.
	DeleteRecords(ctx context.Context, c models.Collection, ids ...string) error

	// GetMetadata returns the metadata singleton (zero value when unset).
	GetMetadata(ctx context.Context) (models.Metadata, error)

	// PutMetadata stores the balances of m and advances LastModified.
	PutMetadata(ctx context.Context, m models.Metadata) error

	// Counts runs COUNT(*) against every collection table. It never uses the
	// count cache.
	Counts(ctx context.Context) (models.Counts, error)

	// CachedCounts serves counts from the cache, filling it on a miss.
	CachedCounts(ctx context.Context) (models.Counts, error)

	// InvalidateCache drops cached counts.
	InvalidateCache()

	Close() error
}

// BackupStore persists snapshots of the local dataset.
type BackupStore interface {
	Put(ctx context.Context, backup models.Backup) error
	Get(ctx context.Context, id string) (models.Backup, error)
	// List returns capture metadata, newest first.
	List(ctx context.Context) ([]models.BackupInfo, error)
	// Delete removes the given backups atomically.
	Delete(ctx context.Context, ids ...string) error
	Close() error
}

// ErrorClassificator decides whether a failed database operation is worth
// retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
