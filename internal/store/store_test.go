// ABOUTME: Shared test helpers for the store package
// ABOUTME: Provides in-memory and bare (unmigrated) store constructors

package store

import (
	"database/sql"
	"log/slog"
	"testing"
)

// newTestStore returns a fully migrated in-memory store.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newBareStore returns a store with pragmas set but no migrations run,
// for exercising the migration engine directly.
func newBareStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		t.Fatalf("enabling foreign keys: %v", err)
	}
	s := &Store{db: db, logger: slog.Default()}
	t.Cleanup(func() { db.Close() })
	return s
}
