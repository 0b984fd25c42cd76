package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/store"
)

const documentsTable = "documents"

// PostgresStore keeps documents in the document server's postgres database.
// Transient database failures surface as [ErrUnavailable].
type PostgresStore struct {
	db *store.DB
	sb sq.StatementBuilderType
}

// NewPostgresStore wraps a connected and migrated database.
func NewPostgresStore(db *store.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (p *PostgresStore) Get(ctx context.Context, budgetID, path string) ([]byte, error) {
	if err := checkAddress(budgetID, path); err != nil {
		return nil, err
	}

	query, args, err := p.sb.
		Select("body").
		From(documentsTable).
		Where(sq.Eq{"budget_id": budgetID, "path": path}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrBuildingSQLQuery, err)
	}

	var body []byte
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
	}
	if err != nil {
		return nil, p.wrap(ctx, "PostgresStore.Get", err)
	}
	return body, nil
}

func (p *PostgresStore) Put(ctx context.Context, budgetID, path string, body []byte) error {
	if err := checkAddress(budgetID, path); err != nil {
		return err
	}
	if body == nil {
		body = []byte{}
	}

	query, args, err := p.sb.
		Insert(documentsTable).
		Columns("budget_id", "path", "body", "updated_at").
		Values(budgetID, path, body, sq.Expr("now()")).
		Suffix("ON CONFLICT (budget_id, path) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrBuildingSQLQuery, err)
	}

	if _, err = p.db.ExecContext(ctx, query, args...); err != nil {
		return p.wrap(ctx, "PostgresStore.Put", err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, budgetID, path string) error {
	if err := checkAddress(budgetID, path); err != nil {
		return err
	}

	query, args, err := p.sb.
		Delete(documentsTable).
		Where(sq.Eq{"budget_id": budgetID, "path": path}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrBuildingSQLQuery, err)
	}

	if _, err = p.db.ExecContext(ctx, query, args...); err != nil {
		return p.wrap(ctx, "PostgresStore.Delete", err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, budgetID, prefix string) ([]string, error) {
	if budgetID == "" {
		return nil, ErrEmptyBudgetID
	}

	query, args, err := p.sb.
		Select("path").
		From(documentsTable).
		Where(sq.Eq{"budget_id": budgetID}).
		Where(sq.Expr(`path LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")).
		OrderBy("path").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrBuildingSQLQuery, err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, p.wrap(ctx, "PostgresStore.List", err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var path string
		if err = rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrScanningRows, err)
		}
		paths = append(paths, path)
	}
	if err = rows.Err(); err != nil {
		return nil, p.wrap(ctx, "PostgresStore.List", err)
	}

	return paths, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: postgres ping: %w", ErrUnavailable, err)
	}
	return nil
}

func (p *PostgresStore) wrap(ctx context.Context, funcName string, err error) error {
	logger.FromContext(ctx).Err(err).Str("func", funcName).Str("sqlstate", store.PostgresErrorCode(err)).Msg("postgres document query failed")

	if p.db.Classify(err) == store.Retryable {
		return fmt.Errorf("%w: postgres: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("postgres: %w", err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
