// ABOUTME: SQLite-backed store using modernc.org/sqlite
// ABOUTME: Connection setup, pragmas, and shared row codec helpers

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed persistence layer. A single process owns the
// database file; physical writes are serialized by SQLite itself.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	migrateOnce sync.Once
	migrateErr  error
}

// Open opens (or creates) the database at path, applies pragmas, and runs
// any pending schema migrations. Parent directories are created if needed.
// A migration failure is fatal to startup: the caller must not serve with
// a partially migrated schema.
func Open(path string) (*Store, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// In-memory databases vanish when their sole connection closes, and
	// the migration engine assumes one schema per handle either way.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, logger: logger}

	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	logger.Info("store initialized", "path", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("closing store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite constraint
// violation (UNIQUE, CHECK, FOREIGN KEY).
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "constraint failed")
}

// mapExecErr translates driver errors into the store's sentinel space.
func mapExecErr(err error) error {
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// Snowflakes are stored as INTEGER; SQLite has no unsigned column type so
// values round-trip through int64.

func i64(v uint64) int64 { return int64(v) }

func u64(v int64) uint64 { return uint64(v) }

// Timestamps are stored as fixed-width RFC 3339 text with nanosecond
// precision. The width matters: due_at comparisons and ORDER BY happen on
// the text, and RFC3339Nano's trimmed trailing zeros would break
// lexicographic ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nowUTC() time.Time { return time.Now().UTC() }

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func (m *Meta) scanTimes(createdAt, updatedAt string) error {
	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return fmt.Errorf("parsing updated_at: %w", err)
	}
	return nil
}
