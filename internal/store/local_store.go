package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/models"
)

const (
	metadataTable = "metadata"

	// rows per INSERT; three bound parameters each stays far below the
	// sqlite variable limit
	upsertBatchSize = 200

	upsertRecordSuffix   = "ON CONFLICT(id) DO UPDATE SET body = excluded.body, last_modified = excluded.last_modified"
	upsertMetadataSuffix = "ON CONFLICT(singleton) DO UPDATE SET unassigned_cash = excluded.unassigned_cash, " +
		"actual_balance = excluded.actual_balance, last_modified = excluded.last_modified, sync_version = excluded.sync_version"
)

// sqlExecutor is satisfied by both *sql.DB and *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type localStore struct {
	*DB
	clock clock.Clock
	sb    sq.StatementBuilderType

	mu         sync.Mutex
	cached     models.Counts
	generation uint64
}

// NewLocalStore returns the sqlite-backed [LocalStore]. db must already be
// migrated.
func NewLocalStore(db *DB, clk clock.Clock) LocalStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &localStore{
		DB:    db,
		clock: clk,
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// OpenLocalStore connects to the sqlite database at dsn, applies migrations
// and returns the store.
func OpenLocalStore(ctx context.Context, dsn string, clk clock.Clock, log *logger.Logger) (LocalStore, error) {
	db, err := NewConnectSQLite(ctx, dsn, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return NewLocalStore(db, clk), nil
}

func (l *localStore) ReadAll(ctx context.Context) (*models.DataCollection, error) {
	log := logger.FromContext(ctx)

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "localStore.ReadAll").Msg("failed to begin transaction")
		return nil, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	data := &models.DataCollection{}
	for _, c := range models.AllCollections {
		raw, err := l.readCollection(ctx, tx, c)
		if err != nil {
			log.Err(err).Str("func", "localStore.ReadAll").Str("collection", string(c)).Msg("failed to read collection")
			return nil, err
		}
		if err = models.DecodeCollection(data, c, raw); err != nil {
			log.Err(err).Str("func", "localStore.ReadAll").Str("collection", string(c)).Msg("failed to decode collection")
			return nil, fmt.Errorf("storage: decode %s: %w", c, err)
		}
	}

	data.Metadata, err = l.readMetadata(ctx, tx)
	if err != nil {
		log.Err(err).Str("func", "localStore.ReadAll").Msg("failed to read metadata")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "localStore.ReadAll").Msg("failed to commit transaction")
		return nil, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return data, nil
}

func (l *localStore) ReplaceAll(ctx context.Context, data *models.DataCollection) error {
	log := logger.FromContext(ctx)

	if data == nil {
		return fmt.Errorf("%w: nil collection", ErrInvalidRecord)
	}

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "localStore.ReplaceAll").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for _, c := range models.AllCollections {
		query, args, err := l.sb.Delete(string(c)).ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			log.Err(err).Str("func", "localStore.ReplaceAll").Str("collection", string(c)).Msg("failed to clear collection")
			return fmt.Errorf("%w: clear %s: %w", ErrExecutingStatement, c, err)
		}

		rows, err := models.EncodeRows(data, c)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
		if err = l.upsertRows(ctx, tx, c, rows, time.Time{}); err != nil {
			log.Err(err).Str("func", "localStore.ReplaceAll").Str("collection", string(c)).Msg("failed to insert records")
			return err
		}
	}

	if err = l.writeMetadata(ctx, tx, data.Metadata); err != nil {
		log.Err(err).Str("func", "localStore.ReplaceAll").Msg("failed to write metadata")
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "localStore.ReplaceAll").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	l.InvalidateCache()

	log.Debug().Str("func", "localStore.ReplaceAll").Int("total_items", data.TotalItems()).Msg("local data replaced")
	return nil
}

func (l *localStore) SaveRecords(ctx context.Context, data *models.DataCollection) error {
	if data == nil {
		return fmt.Errorf("%w: nil collection", ErrInvalidRecord)
	}

	return l.mutate(ctx, "localStore.SaveRecords", func(tx *sql.Tx, meta *models.Metadata) error {
		for _, c := range models.AllCollections {
			rows, err := models.EncodeRows(data, c)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
			}
			if err = l.upsertRows(ctx, tx, c, rows, meta.LastModified); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *localStore) DeleteRecords(ctx context.Context, c models.Collection, ids ...string) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	if len(ids) == 0 {
		return nil
	}

	return l.mutate(ctx, "localStore.DeleteRecords", func(tx *sql.Tx, _ *models.Metadata) error {
		query, args, err := l.sb.Delete(string(c)).Where(sq.Eq{"id": ids}).ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: delete from %s: %w", ErrExecutingStatement, c, err)
		}
		return nil
	})
}

func (l *localStore) GetMetadata(ctx context.Context) (models.Metadata, error) {
	return l.readMetadata(ctx, l.DB)
}

func (l *localStore) PutMetadata(ctx context.Context, m models.Metadata) error {
	return l.mutate(ctx, "localStore.PutMetadata", func(_ *sql.Tx, meta *models.Metadata) error {
		meta.UnassignedCash = m.UnassignedCash
		meta.ActualBalance = m.ActualBalance
		if m.SyncVersion != "" {
			meta.SyncVersion = m.SyncVersion
		}
		return nil
	})
}

// mutate runs fn in a transaction and then stores the metadata with
// LastModified advanced past its previous value.
func (l *localStore) mutate(ctx context.Context, funcName string, fn func(tx *sql.Tx, meta *models.Metadata) error) error {
	log := logger.FromContext(ctx)

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	meta, err := l.readMetadata(ctx, tx)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to read metadata")
		return err
	}
	meta.LastModified = NextModified(l.clock.Now(), meta.LastModified)

	if err = fn(tx, &meta); err != nil {
		log.Err(err).Str("func", funcName).Msg("mutation failed")
		return err
	}

	if err = l.writeMetadata(ctx, tx, meta); err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to write metadata")
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	l.InvalidateCache()

	return nil
}

func (l *localStore) Counts(ctx context.Context) (models.Counts, error) {
	counts := make(models.Counts, len(models.AllCollections))
	for _, c := range models.AllCollections {
		query, args, err := l.sb.Select("COUNT(*)").From(string(c)).ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		var n int
		if err = l.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			logger.FromContext(ctx).Err(err).Str("func", "localStore.Counts").Str("collection", string(c)).Msg("failed to count records")
			return nil, fmt.Errorf("%w: count %s: %w", ErrExecutingQuery, c, err)
		}
		counts[c] = n
	}
	return counts, nil
}

func (l *localStore) CachedCounts(ctx context.Context) (models.Counts, error) {
	l.mu.Lock()
	if l.cached != nil {
		out := maps.Clone(l.cached)
		l.mu.Unlock()
		return out, nil
	}
	gen := l.generation
	l.mu.Unlock()

	counts, err := l.Counts(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	// an invalidation raced with the query; do not cache its result
	if gen == l.generation {
		l.cached = maps.Clone(counts)
	}
	l.mu.Unlock()

	return counts, nil
}

func (l *localStore) InvalidateCache() {
	l.mu.Lock()
	l.cached = nil
	l.generation++
	l.mu.Unlock()
}

func (l *localStore) readCollection(ctx context.Context, q sqlExecutor, c models.Collection) ([]json.RawMessage, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}

	query, args, err := l.sb.Select("body").From(string(c)).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrExecutingQuery, c, err)
	}
	defer rows.Close()

	raw := make([]json.RawMessage, 0)
	for rows.Next() {
		var body string
		if err = rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		raw = append(raw, json.RawMessage(body))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return raw, nil
}

// upsertRows writes rows in batches. Rows without a modification time get
// fallback (when non-zero) in the last_modified column.
func (l *localStore) upsertRows(ctx context.Context, q sqlExecutor, c models.Collection, rows []models.RecordRow, fallback time.Time) error {
	for start := 0; start < len(rows); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(rows))

		insert := l.sb.Insert(string(c)).Columns("id", "body", "last_modified").Suffix(upsertRecordSuffix)
		for _, row := range rows[start:end] {
			if row.ID == "" {
				return fmt.Errorf("%w: empty id in %s", ErrInvalidRecord, c)
			}
			modified := row.Modified
			if modified.IsZero() {
				modified = fallback
			}
			insert = insert.Values(row.ID, string(row.Body), toMillis(modified))
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
		if _, err = q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: insert into %s: %w", ErrExecutingStatement, c, err)
		}
	}
	return nil
}

func (l *localStore) readMetadata(ctx context.Context, q sqlExecutor) (models.Metadata, error) {
	query, args, err := l.sb.
		Select("unassigned_cash", "actual_balance", "last_modified", "sync_version").
		From(metadataTable).
		Where(sq.Eq{"singleton": 1}).
		ToSql()
	if err != nil {
		return models.Metadata{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		unassigned, actual, version string
		lastModified                int64
	)
	err = q.QueryRowContext(ctx, query, args...).Scan(&unassigned, &actual, &lastModified, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Metadata{}, nil
	}
	if err != nil {
		return models.Metadata{}, fmt.Errorf("%w: read metadata: %w", ErrExecutingQuery, err)
	}

	meta := models.Metadata{LastModified: fromMillis(lastModified), SyncVersion: version}
	if meta.UnassignedCash, err = decimal.NewFromString(unassigned); err != nil {
		return models.Metadata{}, fmt.Errorf("%w: unassigned cash: %w", ErrScanningRows, err)
	}
	if meta.ActualBalance, err = decimal.NewFromString(actual); err != nil {
		return models.Metadata{}, fmt.Errorf("%w: actual balance: %w", ErrScanningRows, err)
	}
	return meta, nil
}

func (l *localStore) writeMetadata(ctx context.Context, q sqlExecutor, m models.Metadata) error {
	query, args, err := l.sb.
		Insert(metadataTable).
		Columns("singleton", "unassigned_cash", "actual_balance", "last_modified", "sync_version").
		Values(1, m.UnassignedCash.String(), m.ActualBalance.String(), toMillis(m.LastModified), m.SyncVersion).
		Suffix(upsertMetadataSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: write metadata: %w", ErrExecutingStatement, err)
	}
	return nil
}

// NextModified returns the LastModified to stamp on a local write: now
// truncated to milliseconds, but always at least one millisecond after prev.
func NextModified(now, prev time.Time) time.Time {
	next := now.UTC().Truncate(time.Millisecond)
	if !prev.IsZero() && !next.After(prev) {
		next = prev.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return next
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
