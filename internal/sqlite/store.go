// Package sqlite implements the LinkStore contract over a local SQLite
// database. The store is the system of record: conditional UPDATEs keyed on
// the version column are the sole concurrency guard, and atomic operations
// run inside a single transaction obtained through InTx.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/twine/pkg/types"
)

// Compile-time interface check: Store must implement LinkStore.
var _ types.LinkStore = (*Store)(nil)

// DBFileName is the SQLite database file created under DataDir.
const DBFileName = "twine.db"

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store methods run against it so the same code serves both the root store
// and transactional views.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite-backed LinkStore. The zero value is not usable; call
// Open. A Store returned by InTx shares its parent's transaction and must
// not outlive the callback.
type Store struct {
	db *sql.DB // nil for transactional views
	q  querier
}

// Open creates DataDir if needed, opens (or creates) the database file, and
// applies the schema.
func Open(config types.Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(config.DataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}

	// Single writer at a time; concurrent writers queue briefly instead
	// of failing with SQLITE_BUSY.
	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy_timeout: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), schemaSQL()); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db, q: db}, nil
}

// Close releases the database handle. Close is idempotent. Transactional
// views must not be closed.
func (s *Store) Close() error {
	if s.db == nil {
		return types.ErrStoreClosed
	}
	err := s.db.Close()
	s.q = nil
	s.db = nil
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// InTx runs fn against a transactional view. A nested call on a view joins
// the enclosing transaction rather than opening a new one.
func (s *Store) InTx(ctx context.Context, fn func(types.LinkStore) error) error {
	if s.db == nil {
		if s.q == nil {
			return types.ErrStoreClosed
		}
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// newID generates a UUID v7, falling back to v4 if v7 generation fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Timestamps are stored as RFC 3339 with nanoseconds, always UTC.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
