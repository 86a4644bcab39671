package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds SQLite-specific database configuration
type Config struct {
	// Path is the database file path, or ":memory:"
	Path string

	// BusyTimeout sets how long to wait for database locks
	BusyTimeout time.Duration

	// EnableForeignKeys enables foreign key constraint checking
	EnableForeignKeys bool

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
	Synchronous string

	// SkipMigrations opens the database without upgrading its schema
	SkipMigrations bool
}

// DefaultConfig returns a SQLite configuration with sensible defaults
func DefaultConfig(path string) Config {
	return Config{
		Path:              path,
		BusyTimeout:       30 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
	}
}

// TestConfig returns a configuration for temporary file databases in tests
func TestConfig(path string) Config {
	return Config{
		Path:              path,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if c.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}

	validJournalModes := map[string]bool{
		"DELETE":   true,
		"TRUNCATE": true,
		"PERSIST":  true,
		"MEMORY":   true,
		"WAL":      true,
		"OFF":      true,
	}
	if c.JournalMode != "" && !validJournalModes[c.JournalMode] {
		return fmt.Errorf("invalid journal mode: %s", c.JournalMode)
	}

	validSyncModes := map[string]bool{
		"OFF":    true,
		"NORMAL": true,
		"FULL":   true,
		"EXTRA":  true,
	}
	if c.Synchronous != "" && !validSyncModes[c.Synchronous] {
		return fmt.Errorf("invalid synchronous mode: %s", c.Synchronous)
	}

	return nil
}

// createDatabaseFile creates the database file and its directory if they don't exist
func (c Config) createDatabaseFile() error {
	if c.Path == ":memory:" {
		return nil
	}

	dbDir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}

	if _, err := os.Stat(c.Path); err == nil {
		return nil
	}

	file, err := os.OpenFile(c.Path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create database file %s: %w", c.Path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close database file %s: %w", c.Path, err)
	}

	return nil
}

// configure applies PRAGMA settings to the single pooled connection.
func (c Config) configure(ctx context.Context, db *sql.DB) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"busy_timeout", fmt.Sprintf("%d", c.BusyTimeout.Milliseconds())},
	}
	if c.JournalMode != "" {
		pragmas = append(pragmas, struct {
			name  string
			value string
		}{"journal_mode", c.JournalMode})
	}
	if c.Synchronous != "" {
		pragmas = append(pragmas, struct {
			name  string
			value string
		}{"synchronous", c.Synchronous})
	}
	if c.EnableForeignKeys {
		pragmas = append(pragmas, struct {
			name  string
			value string
		}{"foreign_keys", "ON"})
	}

	for _, pragma := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set PRAGMA %s: %w", pragma.name, err)
		}
	}

	return nil
}
