package store

import (
	"database/sql"
	"fmt"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/migrations"
)

const (
	dialectSQLite   = "sqlite3"
	dialectPostgres = "pgx"
)

type DB struct {
	*sql.DB
	dialect            string
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// NewDB wraps an open connection. It is used by tests and by callers that
// manage the *sql.DB themselves.
func NewDB(conn *sql.DB, dialect string, log *logger.Logger) *DB {
	db := &DB{DB: conn, dialect: dialect, logger: log}
	if dialect == dialectPostgres {
		db.errorClassificator = NewPostgresErrorClassifier()
	}
	return db
}

func (db *DB) Migrate() error {
	switch db.dialect {
	case dialectSQLite:
		return migrations.MigrateLocal(db.DB)
	case dialectPostgres:
		return migrations.MigrateRemote(db.DB)
	}
	return fmt.Errorf("migration error: unsupported dialect %q", db.dialect)
}

// Classify reports whether err is worth retrying. Databases without a
// classifier treat every error as non-retryable.
func (db *DB) Classify(err error) ErrorClassification {
	if db.errorClassificator == nil {
		return NonRetryable
	}
	return db.errorClassificator.Classify(err)
}
