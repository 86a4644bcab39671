package migration

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	versionTableExistsSQL = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'version'`
	createVersionTableSQL = `CREATE TABLE IF NOT EXISTS version (version INT NOT NULL)`
	selectVersionSQL      = `SELECT version FROM version LIMIT 1`
	rollbackSQL           = `ROLLBACK`
	clearVersionSQL       = `DELETE FROM version`
	insertVersionSQL      = `INSERT INTO version (version) VALUES (?)`
)

// Engine applies registry steps to a database and tracks its schema version.
//
// The engine caches the version read from the version table and refreshes it
// after every committed step. It is meant to be driven by a single caller;
// the mutex only keeps the cache consistent for concurrent readers.
type Engine struct {
	db       *sql.DB
	registry *Registry
	logger   *slog.Logger

	mu            sync.Mutex
	version       int
	versionLoaded bool
}

// NewEngine creates a migration engine for db. A nil logger discards output.
func NewEngine(db *sql.DB, registry *Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		db:       db,
		registry: registry,
		logger:   logger,
	}
}

// CurrentVersion returns the schema version recorded in the version table.
// A missing table or a table without a row is version 0. Reading never writes
// to the database; the table is created by the first applied step.
func (e *Engine) CurrentVersion(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.currentVersionLocked(ctx)
}

func (e *Engine) currentVersionLocked(ctx context.Context) (int, error) {
	if e.versionLoaded {
		return e.version, nil
	}

	var tables int
	if err := e.db.QueryRowContext(ctx, versionTableExistsSQL).Scan(&tables); err != nil {
		return 0, NewDatabaseError(0, versionTableExistsSQL, "find version table", err)
	}
	if tables == 0 {
		e.version = 0
		e.versionLoaded = true
		return 0, nil
	}

	var version int
	err := e.db.QueryRowContext(ctx, selectVersionSQL).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		version = 0
	case err != nil:
		return 0, NewDatabaseError(0, selectVersionSQL, "read version", err)
	case version < 0:
		return 0, NewDatabaseError(0, selectVersionSQL, "read version",
			fmt.Errorf("%w: negative version %d", ErrVersionTableCorrupt, version))
	}

	e.version = version
	e.versionLoaded = true
	return version, nil
}

// Latest returns the last version known to the registry.
func (e *Engine) Latest() int {
	return e.registry.Latest()
}

// Pending returns the steps an upgrade would apply, in order.
func (e *Engine) Pending(ctx context.Context) ([]Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.pendingLocked(ctx)
}

func (e *Engine) pendingLocked(ctx context.Context) ([]Step, error) {
	current, err := e.currentVersionLocked(ctx)
	if err != nil {
		return nil, err
	}

	steps, err := e.registry.After(current)
	if err != nil {
		return nil, NewMigrationError(0, "locate current version", err)
	}
	return steps, nil
}

// Status returns the current and latest versions with the pending steps.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending, err := e.pendingLocked(ctx)
	if err != nil {
		return Status{}, err
	}

	return Status{
		CurrentVersion: e.version,
		LatestVersion:  e.registry.Latest(),
		Pending:        pending,
	}, nil
}

// Upgrade applies every step after the current version, strictly in sequence
// order, each in its own transaction. It stops at the first failing step and
// returns the number of steps committed before the failure.
func (e *Engine) Upgrade(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	startTime := time.Now()

	pending, err := e.pendingLocked(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "cannot determine pending migrations", "error", err)
		return 0, err
	}

	if len(pending) == 0 {
		e.logger.DebugContext(ctx, "database schema is up to date", "version", e.version)
		return 0, nil
	}

	e.logger.InfoContext(ctx, "upgrading database schema",
		"from", e.version, "to", e.registry.Latest(), "steps", len(pending))

	for i, step := range pending {
		stepStart := time.Now()

		e.logger.InfoContext(ctx, "applying migration",
			"version", step.Version,
			"description", step.Description,
			"checksum", step.Checksum,
			"position", fmt.Sprintf("%d/%d", i+1, len(pending)))

		if err := e.applyStep(ctx, step); err != nil {
			e.logger.ErrorContext(ctx, "migration aborted", "version", step.Version, "error", err)
			return i, err
		}

		e.version = step.Version
		e.logger.InfoContext(ctx, "migration completed",
			"version", step.Version, "duration", time.Since(stepStart))
	}

	e.logger.InfoContext(ctx, "database schema upgraded",
		"version", e.version, "steps", len(pending), "duration", time.Since(startTime))

	return len(pending), nil
}

// applyStep runs one step and records its version within a single transaction.
//
// The transaction runs on a dedicated connection. SQLite keeps a transaction
// open when COMMIT fails (for example on a deferred foreign key violation),
// while database/sql already considers it finished, so the connection is
// rolled back explicitly, or discarded, before it goes back to the pool.
func (e *Engine) applyStep(ctx context.Context, step Step) (err error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return NewMigrationError(step.Version, "acquire connection", NewDatabaseError(step.Version, "", "acquire connection", err))
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return NewMigrationError(step.Version, "begin transaction", NewDatabaseError(step.Version, "", "begin transaction", err))
	}

	committing := false
	defer func() {
		if err == nil || committing {
			return
		}
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			e.logger.ErrorContext(ctx, "failed to rollback migration",
				"version", step.Version, "error", rollbackErr)
		}
	}()

	if err = step.Apply(ctx, tx); err != nil {
		if errors.Is(err, ErrResourceLoad) {
			return NewMigrationError(step.Version, "load resource", err)
		}
		return NewMigrationError(step.Version, "apply", fmt.Errorf("%w: %w", ErrMigrationFailed, err))
	}

	for _, record := range []struct {
		query     string
		operation string
		args      []any
	}{
		{createVersionTableSQL, "create version table", nil},
		{clearVersionSQL, "clear version", nil},
		{insertVersionSQL, "insert version", []any{step.Version}},
	} {
		if _, err = tx.ExecContext(ctx, record.query, record.args...); err != nil {
			return NewMigrationError(step.Version, "record version",
				fmt.Errorf("%w: %w", ErrMigrationFailed, NewDatabaseError(step.Version, record.query, record.operation, err)))
		}
	}

	committing = true
	if err = tx.Commit(); err != nil {
		e.abandonTransaction(ctx, conn, step.Version)
		return NewMigrationError(step.Version, "commit",
			fmt.Errorf("%w: %w", ErrCommitFailed, err))
	}

	return nil
}

// abandonTransaction ends a transaction left open by a failed COMMIT. When the
// rollback itself fails the connection is closed instead of being reused.
func (e *Engine) abandonTransaction(ctx context.Context, conn *sql.Conn, version int) {
	ctx = context.WithoutCancel(ctx)

	_, err := conn.ExecContext(ctx, rollbackSQL)
	if err == nil || strings.Contains(err.Error(), "no transaction is active") {
		return
	}

	e.logger.ErrorContext(ctx, "failed to rollback after commit failure, discarding connection",
		"version", version, "error", err)
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
}
