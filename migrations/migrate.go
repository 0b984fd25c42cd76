package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed local/*.sql
var localMigrations embed.FS

//go:embed remote/*.sql
var remoteMigrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// MigrateLocal applies the sqlite schema of the local store.
func MigrateLocal(db *sql.DB) error {
	return migrate(db, localMigrations, "local", "sqlite3")
}

// MigrateRemote applies the postgres schema of the document server.
func MigrateRemote(db *sql.DB) error {
	return migrate(db, remoteMigrations, "remote", "pgx")
}

func migrate(db *sql.DB, fsys fs.FS, dir, dialect string) error {
	if db == nil {
		return errors.New("migration error: db is nil")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
