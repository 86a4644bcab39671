package migration

import (
	"embed"
	"fmt"
	"sync"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Registry holds the known migration steps in ascending version order.
// Steps can only be appended; a published step must never change.
type Registry struct {
	mu    sync.RWMutex
	steps []Step
}

// NewRegistry creates a registry containing the given steps.
func NewRegistry(steps ...Step) (*Registry, error) {
	r := &Registry{}
	for _, step := range steps {
		if err := r.Register(step); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns the steps that build the notes schema.
//
// To add a schema version, append a step here with the next version number
// and never edit a published one.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		SQLStep(1, "initial schema", schemaFS, "schema/001_initial.sql"),
		SQLStep(2, "note indexes", schemaFS, "schema/002_note_indexes.sql"),
	)
	if err != nil {
		panic(fmt.Sprintf("migration: invalid default registry: %v", err))
	}
	return r
}

// Register appends a step. Its version must be positive and greater than the
// last registered version.
func (r *Registry) Register(step Step) error {
	if step.Version <= 0 {
		return NewMigrationError(step.Version, "register", fmt.Errorf("%w: %d", ErrInvalidVersion, step.Version))
	}
	if step.Apply == nil {
		return NewMigrationError(step.Version, "register", fmt.Errorf("%w: step has no apply function", ErrInvalidVersion))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.steps); n > 0 && step.Version <= r.steps[n-1].Version {
		return NewMigrationError(step.Version, "register",
			fmt.Errorf("%w: %d registered after %d", ErrVersionOrder, step.Version, r.steps[n-1].Version))
	}

	r.steps = append(r.steps, step)
	return nil
}

// Versions returns the known version sequence.
func (r *Registry) Versions() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.versionsLocked()
}

// Latest returns the last known version, or 0 for an empty registry.
func (r *Registry) Latest() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.steps) == 0 {
		return 0
	}
	return r.steps[len(r.steps)-1].Version
}

// After returns the steps following version in sequence order. Version 0
// precedes every step. A version that is not in the sequence yields
// ErrUnknownVersion.
func (r *Registry) After(version int) ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if version == 0 {
		return append([]Step(nil), r.steps...), nil
	}

	for i, step := range r.steps {
		if step.Version == version {
			return append([]Step(nil), r.steps[i+1:]...), nil
		}
	}

	return nil, fmt.Errorf("%w: database is at version %d, known versions are %v",
		ErrUnknownVersion, version, r.versionsLocked())
}

func (r *Registry) versionsLocked() []int {
	versions := make([]int, len(r.steps))
	for i, step := range r.steps {
		versions[i] = step.Version
	}
	return versions
}
