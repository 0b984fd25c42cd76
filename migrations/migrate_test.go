// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package migrations

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateRemote_DBError(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	// no expectations: the first statement goose issues fails
	err = MigrateRemote(db)
	if err == nil {
		t.Fatal("expected error from MigrateRemote, got nil")
	}

	if !strings.Contains(err.Error(), "migration error") {
		t.Errorf("expected wrapped migration error, got: %v", err)
	}
}

func TestMigrate_NilDB(t *testing.T) {
	var db *sql.DB

	for name, fn := range map[string]func(*sql.DB) error{"local": MigrateLocal, "remote": MigrateRemote} {
		err := fn(db)
		if err == nil {
			t.Fatalf("%s: expected error when db is nil, got nil", name)
		}
		if !strings.Contains(err.Error(), "db is nil") {
			t.Errorf("%s: expected 'db is nil' error, got: %v", name, err)
		}
	}
}

func TestMigrateLocal_CreatesTables(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err = MigrateLocal(db); err != nil {
		t.Fatalf("MigrateLocal: %v", err)
	}
	// second run is a no-op
	if err = MigrateLocal(db); err != nil {
		t.Fatalf("MigrateLocal (again): %v", err)
	}

	for _, table := range []string{"envelopes", "transactions", "bills", "debts", "paycheck_history", "metadata"} {
		var name string
		row := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		if err = row.Scan(&name); err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}
}
