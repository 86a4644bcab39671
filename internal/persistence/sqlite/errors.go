package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/notesdb/internal/persistence"
)

// mapError maps SQLite errors to persistence layer errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "UNIQUE constraint failed"),
		strings.Contains(errStr, "PRIMARY KEY"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case strings.Contains(errStr, "FOREIGN KEY constraint failed"),
		strings.Contains(errStr, "CHECK constraint failed"),
		strings.Contains(errStr, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}

	return err
}
