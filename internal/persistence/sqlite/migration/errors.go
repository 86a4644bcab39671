package migration

import (
	"errors"
	"fmt"
)

// Migration-specific error types for different failure scenarios
var (
	// ErrMigrationFailed indicates that a statement of a step failed and the step was rolled back
	ErrMigrationFailed = errors.New("migration execution failed")

	// ErrResourceLoad indicates that the SQL resource of a step could not be read
	ErrResourceLoad = errors.New("migration resource cannot be loaded")

	// ErrCommitFailed indicates that the transaction of a step could not be committed
	ErrCommitFailed = errors.New("migration commit failed")

	// ErrUnknownVersion indicates that the database reports a version the registry does not know,
	// typically a database written by newer software
	ErrUnknownVersion = errors.New("unknown database version")

	// ErrInvalidVersion indicates that a step version is not positive
	ErrInvalidVersion = errors.New("invalid migration version")

	// ErrVersionOrder indicates that a step was registered out of ascending order
	ErrVersionOrder = errors.New("migration version out of order")

	// ErrVersionTableCorrupt indicates that the version table holds an unusable value
	ErrVersionTableCorrupt = errors.New("version table is corrupted")
)

// MigrationError wraps migration-specific errors with additional context
type MigrationError struct {
	Version   int    // Target version of the step that caused the error
	Operation string // Operation being performed (apply, commit, ...)
	Err       error  // Underlying error
}

// Error implements the error interface
func (e *MigrationError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("migration %d: %s: %v", e.Version, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration error: %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for error unwrapping
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error
func (e *MigrationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewMigrationError creates a new MigrationError with context
func NewMigrationError(version int, operation string, err error) *MigrationError {
	return &MigrationError{
		Version:   version,
		Operation: operation,
		Err:       err,
	}
}

// ResourceError wraps failures to read the SQL resource of a step
type ResourceError struct {
	Path string // Resource path inside the step's filesystem
	Err  error  // Underlying error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrResourceLoad, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Is reports ErrResourceLoad for every resource failure
func (e *ResourceError) Is(target error) bool {
	return target == ErrResourceLoad
}

// NewResourceError creates a new ResourceError
func NewResourceError(path string, err error) *ResourceError {
	return &ResourceError{
		Path: path,
		Err:  err,
	}
}

// DatabaseError wraps database-related errors during migration operations
type DatabaseError struct {
	Version   int    // Target version (if applicable)
	Query     string // SQL query that failed (if applicable)
	Operation string // Database operation (execute, query, etc.)
	Err       error  // Underlying error
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("database error in migration %d during %s: %v", e.Version, e.Operation, e.Err)
	}
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(version int, query, operation string, err error) *DatabaseError {
	return &DatabaseError{
		Version:   version,
		Query:     query,
		Operation: operation,
		Err:       err,
	}
}
