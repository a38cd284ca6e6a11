// Package results implements the append-only execution result registry on
// SQLite. The default DSN is an in-memory database: the registry lives and
// dies with the console session, there is no durable persistence contract.
package results

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/opsdeck/opsdeck/pkg/errclass"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryDSN is the session-scoped in-memory database path.
const MemoryDSN = ":memory:"

// Config holds SQLite registry configuration.
type Config struct {
	// Path is the database path. Defaults to MemoryDSN.
	Path string `yaml:"path"`

	// MaxOpenConns caps the connection pool. An in-memory database is
	// always pinned to a single connection regardless of this setting,
	// since each pooled connection would otherwise see its own database.
	MaxOpenConns int `yaml:"max_open_conns"`
}

// SQLiteRegistry implements Registry using SQLite.
type SQLiteRegistry struct {
	db   *sql.DB
	path string
	cfg  Config
}

// NewSQLiteRegistry creates a registry instance. Call Init and Migrate
// before use.
func NewSQLiteRegistry(cfg Config) *SQLiteRegistry {
	if cfg.Path == "" {
		cfg.Path = MemoryDSN
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 5
	}
	return &SQLiteRegistry{path: cfg.Path, cfg: cfg}
}

// Init opens the database connection and configures the pool.
func (r *SQLiteRegistry) Init(ctx context.Context) error {
	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if r.path == MemoryDSN {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(r.cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	r.db = db
	return nil
}

// Close closes the database connection. For an in-memory registry this
// discards all stored results.
func (r *SQLiteRegistry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Migrate runs the embedded schema migrations.
func (r *SQLiteRegistry) Migrate(_ context.Context) error {
	if r.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(r.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Append stores a new result record.
func (r *SQLiteRegistry) Append(ctx context.Context, res *ExecutionResult) error {
	query := `
		INSERT INTO results (id, playbook_id, playbook_name, vm_id, vm_name, timestamp, output)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		res.ID,
		res.PlaybookID,
		res.PlaybookName,
		res.VMID,
		res.VMName,
		res.Timestamp.UTC().Format(time.RFC3339Nano),
		res.Output,
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errclass.NewAlreadyExists("result", res.ID).WithOperation("append_result")
		}
		return fmt.Errorf("failed to append result: %w", err)
	}

	return nil
}

// Get retrieves a result by ID.
func (r *SQLiteRegistry) Get(ctx context.Context, id string) (*ExecutionResult, error) {
	query := `
		SELECT id, playbook_id, playbook_name, vm_id, vm_name, timestamp, output
		FROM results
		WHERE id = ?
	`

	res, err := scanResult(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errclass.NewNotFound("result", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return res, nil
}

// List returns all results in insertion order.
func (r *SQLiteRegistry) List(ctx context.Context) ([]*ExecutionResult, error) {
	query := `
		SELECT id, playbook_id, playbook_name, vm_id, vm_name, timestamp, output
		FROM results
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	out := []*ExecutionResult{}
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return out, nil
}

// Pair returns the raw output logs of two results, unmodified, for the AI
// comparison boundary.
func (r *SQLiteRegistry) Pair(ctx context.Context, idA, idB string) (string, string, error) {
	a, err := r.Get(ctx, idA)
	if err != nil {
		return "", "", err
	}
	b, err := r.Get(ctx, idB)
	if err != nil {
		return "", "", err
	}
	return a.Output, b.Output, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*ExecutionResult, error) {
	res := &ExecutionResult{}
	var ts string
	if err := row.Scan(
		&res.ID,
		&res.PlaybookID,
		&res.PlaybookName,
		&res.VMID,
		&res.VMName,
		&ts,
		&res.Output,
	); err != nil {
		return nil, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("invalid stored timestamp %q: %w", ts, err)
	}
	res.Timestamp = parsed

	return res, nil
}
