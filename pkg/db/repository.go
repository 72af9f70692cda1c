package db

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chembank/chembank/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Querier is the storage interface consumed by the catalogue and the bulk
// transfer pipeline. Both *sql.DB and *sql.Tx satisfy it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs the catalogue statements against a Querier.
type Queries struct {
	db Querier
}

// New returns Queries bound to db.
func New(db Querier) *Queries {
	return &Queries{db: db}
}

// Repository owns the single store handle.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository opens (creating if needed) the store at dbPath and bootstraps the schema.
func NewRepository(dbPath string) (*Repository, error) {
	slog.Info("database_init", "db_path", dbPath)

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("database_dir_create_failed", "db_path", dbPath, "error", err)
			return nil, errors.New(errors.ErrStorageFailure, "store", "open", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		slog.Error("database_open_failed", "db_path", dbPath, "error", err)
		return nil, errors.New(errors.ErrStorageFailure, "store", "open", err)
	}
	// One connection: every operation is serialized on the same handle.
	db.SetMaxOpenConns(1)

	slog.Info("database_create_schema", "db_path", dbPath)
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		slog.Error("database_schema_failed", "db_path", dbPath, "error", err)
		return nil, errors.New(errors.ErrStorageFailure, "store", "bootstrap schema", err)
	}

	slog.Info("database_ready", "db_path", dbPath)
	return &Repository{db: db, path: dbPath}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the store file path.
func (r *Repository) Path() string {
	return r.path
}

// Queries returns Queries running outside any transaction.
func (r *Repository) Queries() *Queries {
	return New(r.db)
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (r *Repository) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed_to_begin_transaction", "error", err)
		return errors.New(errors.ErrStorageFailure, "store", "begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed_to_commit_transaction", "error", err)
		return errors.New(errors.ErrStorageFailure, "store", "commit transaction", err)
	}
	return nil
}

// classify maps a driver error onto the failure taxonomy.
func classify(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	if errors.KindOf(err) != nil {
		return err
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		slog.Warn("database_constraint_violation", "entity", entity, "op", op, "error", err)
		return errors.New(errors.ErrConstraintViolation, entity, op, err)
	}
	slog.Error("database_statement_failed", "entity", entity, "op", op, "error", err)
	return errors.New(errors.ErrStorageFailure, entity, op, err)
}

// nullFloat converts a scanned column into an optional value.
func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
