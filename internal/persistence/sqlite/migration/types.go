package migration

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"

	"golang.org/x/crypto/blake2b"
)

// ApplyFunc transforms the schema from the preceding version to the step version.
// It runs inside the transaction that also records the new version.
type ApplyFunc func(ctx context.Context, tx *sql.Tx) error

// Step represents one forward-only migration with its metadata
type Step struct {
	Version     int       // Target version reached once the step is committed
	Description string    // Human-readable description of the step
	Checksum    string    // BLAKE2b-256 of the SQL resource, empty for code-only steps
	Apply       ApplyFunc // Transformation executed inside the step transaction
}

// Status provides information about the current migration state
type Status struct {
	CurrentVersion int    // Version recorded in the version table
	LatestVersion  int    // Last version known to the registry
	Pending        []Step // Steps that an upgrade would apply, in order
}

// UpToDate reports whether no step is pending.
func (s Status) UpToDate() bool {
	return len(s.Pending) == 0
}

// SQLStep returns a step that executes the statements of the SQL resource at
// path in fsys. The resource is read when the step runs; a missing or
// unreadable resource fails the step with ErrResourceLoad.
func SQLStep(version int, description string, fsys fs.FS, path string) Step {
	step := Step{
		Version:     version,
		Description: description,
	}

	// The checksum is informational; an unreadable resource is reported by Apply.
	if content, err := fs.ReadFile(fsys, path); err == nil {
		step.Checksum = checksum(content)
	}

	step.Apply = func(ctx context.Context, tx *sql.Tx) error {
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return NewResourceError(path, err)
		}

		for i, statement := range SplitStatements(string(content)) {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return NewDatabaseError(version, statement, fmt.Sprintf("execute statement %d", i+1), err)
			}
		}
		return nil
	}

	return step
}

func checksum(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}
