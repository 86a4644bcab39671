package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/notesdb/internal/persistence/sqlite/migration"
	"github.com/example/notesdb/internal/persistence/sqlite/query"
	_ "modernc.org/sqlite"
)

// ErrConnection is returned when the database cannot be opened or configured.
var ErrConnection = errors.New("sqlite: connection failed")

// Database owns a single SQLite connection together with its migration engine.
//
// The pool is limited to one connection so all statements run sequentially on
// the same handle. Callers that need parallel access should open one Database
// per worker.
type Database struct {
	db       *sql.DB
	config   Config
	migrator *migration.Engine
	logger   *slog.Logger
	applied  int
}

// Open opens the database described by cfg and upgrades its schema to the
// latest version of registry, unless cfg.SkipMigrations is set. A nil registry
// uses migration.DefaultRegistry.
func Open(ctx context.Context, cfg Config, registry *migration.Registry, logger *slog.Logger) (*Database, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if registry == nil {
		registry = migration.DefaultRegistry()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration: %w", ErrConnection, err)
	}
	if err := cfg.createDatabaseFile(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrConnection, cfg.Path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := cfg.configure(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrConnection, cfg.Path, err)
	}

	logger.InfoContext(ctx, "database opened", "path", cfg.Path)

	database := &Database{
		db:       db,
		config:   cfg,
		migrator: migration.NewEngine(db, registry, logger),
		logger:   logger,
	}

	if cfg.SkipMigrations {
		return database, nil
	}

	applied, err := database.migrator.Upgrade(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	database.applied = applied

	return database, nil
}

// DB returns the underlying database handle.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Migrator returns the migration engine bound to the database.
func (d *Database) Migrator() *migration.Engine {
	return d.migrator
}

// Applied reports how many migration steps Open applied.
func (d *Database) Applied() int {
	return d.applied
}

// Version returns the current schema version.
func (d *Database) Version(ctx context.Context) (int, error) {
	return d.migrator.CurrentVersion(ctx)
}

// Close closes the database handle.
func (d *Database) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Query executes a query that returns rows.
func (d *Database) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns a single row.
func (d *Database) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows.
func (d *Database) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, query, args...)
}

// BuildQuery builds and prepares an INSERT or UPDATE statement. The returned
// statement belongs to the caller, who executes and closes it.
//
// The pool holds a single connection, so BuildQuery blocks while a transaction
// is open. Inside WithTransaction use BuildQueryTx.
func (d *Database) BuildQuery(ctx context.Context, typ query.Type, table string, fields []string, values []query.Value, where string) (*query.Prepared, error) {
	return d.buildQuery(ctx, d.db, typ, table, fields, values, where)
}

// BuildQueryTx is BuildQuery for a statement prepared on tx.
func (d *Database) BuildQueryTx(ctx context.Context, tx *sql.Tx, typ query.Type, table string, fields []string, values []query.Value, where string) (*query.Prepared, error) {
	return d.buildQuery(ctx, tx, typ, table, fields, values, where)
}

func (d *Database) buildQuery(ctx context.Context, p query.Preparer, typ query.Type, table string, fields []string, values []query.Value, where string) (*query.Prepared, error) {
	stmt, err := query.Build(typ, table, fields, values, where)
	if err != nil {
		return nil, err
	}

	d.logger.DebugContext(ctx, "built query", "sql", stmt.SQL, "fields", fields)

	return query.Prepare(ctx, p, stmt)
}

// TransactionFunc represents a function that executes within a transaction
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes a function within a database transaction
// If the function returns an error, the transaction is rolled back
// Otherwise, the transaction is committed
func (d *Database) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
