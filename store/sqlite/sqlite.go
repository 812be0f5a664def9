/*
Package sqlite provides a SQLite-backed implementation of core.Store.

PURPOSE:
  Persists personnel, the assignment ledger, leave requests, the guard
  duty roster and the audit log. The domain packages only see core.Store;
  everything SQL lives here.

INTERFACES IMPLEMENTED:
  core.Store:  Reads plus WithTx
  core.Tx:     Reads plus writes, handed to WithTx callbacks

APPEND-ONLY ENFORCEMENT:
  - duty_records, career_records and audit_log only receive INSERTs
  - assignments only change their status column, never their posting data
  - leave_requests are never deleted, only moved through their states

KEY TABLES:
  personnel:      Service members keyed by service number
  sections:       Posting targets
  designations:   Roles within a section
  career_records: Career history (rank, promotion, transfer)
  qualifications: Educational qualifications
  assignments:    Posting history, seq breaks same-day ties
  leave_requests: Leave applications and their decisions
  duty_records:   One row per guard shift served
  audit_log:      Who did what, written in the same transaction

INDEXES:
  - idx_unique_duty_slot:           Enforces no double-booked shift
  - idx_leave_requests_person_range: Overlap checks
  - idx_duty_records_person_date:    Last-duty lookups (rotation hot path)

CONCURRENCY:
  WithTx serializes writers with a mutex and opens the SQLite transaction
  with BEGIN IMMEDIATE (_txlock=immediate), so the read-then-write inside
  a leave transition cannot interleave with another writer. Status writes
  are additionally guarded with compare-and-swap predicates.

  Inside WithTx every query goes through the *sql.Tx. Reads never call
  back into the parent Store, which would need a second connection.

MIGRATION:
  Schema is versioned with golang-migrate; SQL files are embedded from
  migrations/ and applied on New().

USAGE:
  store, err := sqlite.New("./data/roster.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  leaves := leave.NewService(store, logger)

SEE ALSO:
  - core/store.go: Interface definitions
  - migrations/:   Schema
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"

	"github.com/warp/duty-roster/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Compile-time interface checks.
var (
	_ core.Store = (*Store)(nil)
	_ core.Tx    = (*txStore)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every read. Store runs them against the pool, txStore
// against its transaction.
type queries struct {
	q querier
}

// Store implements core.Store using SQLite.
type Store struct {
	queries
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{queries: queries{q: db}, db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateUp applies the embedded migrations. The migrate instance is not
// closed because that would close db as well.
func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (core.Store interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{queries: queries{q: sqlTx}}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore is the core.Tx handed to WithTx callbacks. Reads come from the
// embedded queries, bound to the same *sql.Tx as the writes.
type txStore struct {
	queries
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for demo scenarios and tests).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"audit_log", "duty_records", "leave_requests", "qualifications", "career_records",
		"assignments", "personnel", "designations", "sections",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

// timestampLayout is fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(ns sql.NullString) (core.Date, error) {
	if !ns.Valid || ns.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(ns.String)
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
