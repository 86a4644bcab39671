package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/notesdb/internal/persistence"
	"github.com/example/notesdb/internal/persistence/sqlite"
)

// SQLiteHarness bundles a migrated temporary database with repositories that
// use a deterministic clock and identifier generator.
type SQLiteHarness struct {
	DB      *sqlite.Database
	Folders persistence.FolderRepository
	Notes   persistence.NoteRepository
	Clock   *Clock
	IDs     *IDGenerator
}

// NewSQLiteHarness opens a database under tb.TempDir with the default
// migrations applied. The database is closed when the test ends.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "notes.sqlite")
	db, err := sqlite.Open(context.Background(), sqlite.TestConfig(path), nil, nil)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}
	tb.Cleanup(func() {
		_ = db.Close()
	})

	clock := NewClock(ReferenceTime())
	ids := NewIDGenerator("fx")

	return &SQLiteHarness{
		DB:      db,
		Folders: sqlite.NewFolderRepository(db, ids.NextFunc(), clock.NowFunc()),
		Notes:   sqlite.NewNoteRepository(db, ids.NextFunc(), clock.NowFunc()),
		Clock:   clock,
		IDs:     ids,
	}
}
