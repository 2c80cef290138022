// Package storage is the sqlite persistence layer: insert, update-by-id,
// delete-by-id and filtered selects over the tracker tables, plus the
// transaction wrapper the ledger reconciler runs inside.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

var (
	ErrNotFound = errors.New("not found")
	// ErrStaleVersion means an entity update carried a version that no
	// longer matches the stored row. The caller re-reads and retries; the
	// stale write is never applied.
	ErrStaleVersion = errors.New("stale version")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query runs
// unchanged inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles all table accessors over one DBTX.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Repository owns the database handle. Its embedded Queries run in
// autocommit mode; WithTx hands a transactional Queries to fn.
type Repository struct {
	db *sql.DB
	*Queries
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Single writer; modernc sqlite serializes writes anyway and this keeps
	// SQLITE_BUSY out of the reconciler's transactions.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, Queries: New(db)}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WithTx runs fn inside a single sqlite transaction. The multi-step
// reconciliation sequences (write ledger row, recompute entity fields) are
// atomic from the caller's point of view: either all steps commit or none
// are visible.
func (r *Repository) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(New(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseCreatedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullStr maps empty strings to NULL so optional foreign keys stay NULL and
// the partial unique indexes behave.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
