package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/example/notesdb/internal/persistence"
	"github.com/example/notesdb/internal/persistence/sqlite/migration"
	"github.com/example/notesdb/internal/persistence/sqlite/query"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	path := filepath.Join(t.TempDir(), "notes.sqlite")
	db, err := Open(context.Background(), TestConfig(path), nil, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestOpen_CreatesAndMigrates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "notes.sqlite")

	db, err := Open(ctx, TestConfig(path), nil, nil)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	version, err := db.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, migration.DefaultRegistry().Latest(), version)
	require.NoError(t, db.Ping(ctx))
	require.NoError(t, db.Close())

	// Reopening an up-to-date database applies nothing.
	db, err = Open(ctx, TestConfig(path), nil, nil)
	require.NoError(t, err)
	defer db.Close()

	status, err := db.Migrator().Status(ctx)
	require.NoError(t, err)
	require.True(t, status.UpToDate())

	var rows int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM version`).Scan(&rows))
	require.Equal(t, 1, rows)
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := TestConfig(filepath.Join(t.TempDir(), "notes.sqlite"))
	cfg.JournalMode = "SIDEWAYS"

	_, err := Open(context.Background(), cfg, nil, nil)
	require.ErrorIs(t, err, ErrConnection)

	_, err = Open(context.Background(), Config{}, nil, nil)
	require.ErrorIs(t, err, ErrConnection)
}

func TestOpen_MigrationFailureIsReturned(t *testing.T) {
	resources := fstest.MapFS{
		"001.sql": {Data: []byte("CREATE TABLE a (id INT);\nINSERT INTO nowhere VALUES (1);\n")},
	}
	registry, err := migration.NewRegistry(migration.SQLStep(1, "broken", resources, "001.sql"))
	require.NoError(t, err)

	_, err = Open(context.Background(), TestConfig(filepath.Join(t.TempDir(), "notes.sqlite")), registry, nil)
	require.ErrorIs(t, err, migration.ErrMigrationFailed)
}

func TestOpen_FutureDatabaseVersion(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.sqlite")

	db, err := Open(ctx, TestConfig(path), nil, nil)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `UPDATE version SET version = 99`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(ctx, TestConfig(path), nil, nil)
	require.ErrorIs(t, err, migration.ErrUnknownVersion)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig("notes.sqlite").Validate())
	require.NoError(t, TestConfig(":memory:").Validate())

	bad := DefaultConfig("notes.sqlite")
	bad.Synchronous = "SOMETIMES"
	require.Error(t, bad.Validate())

	bad = DefaultConfig("notes.sqlite")
	bad.BusyTimeout = -time.Second
	require.Error(t, bad.Validate())
}

func TestDatabase_BuildQuery(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	stmt, err := db.BuildQuery(ctx, query.Insert, "notes",
		[]string{"id", "title", "created_time", "updated_time", "latitude"},
		[]query.Value{query.String("abc"), query.String("Hello"), query.Int64(1), query.Int64(1), query.Null()}, "")
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO notes (id, title, created_time, updated_time, latitude) VALUES (:id, :title, :created_time, :updated_time, :latitude)", stmt.SQL)
	_, err = stmt.Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, stmt.Close())

	var isNull bool
	require.NoError(t, db.QueryRow(ctx, `SELECT latitude IS NULL FROM notes WHERE id = 'abc'`).Scan(&isNull))
	require.True(t, isNull)

	_, err = db.BuildQuery(ctx, query.Update, "notes", []string{"title"}, []query.Value{{}}, "id = 'abc'")
	require.ErrorIs(t, err, query.ErrUnsupportedValueType)
}

func TestDatabase_WithTransaction(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	boom := errors.New("boom")

	insertFolder := func(tx *sql.Tx, id string) error {
		prepared, err := db.BuildQueryTx(ctx, tx, query.Insert, "folders",
			[]string{"id", "title", "created_time", "updated_time"},
			[]query.Value{query.String(id), query.String("Inbox"), query.Int64(1), query.Int64(1)}, "")
		if err != nil {
			return err
		}
		defer prepared.Close()
		_, err = prepared.Exec(ctx)
		return err
	}

	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := insertFolder(tx, "f1"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	folders := NewFolderRepository(db, nil, nil)
	_, err = folders.GetFolder(ctx, "f1")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	// Statements built inside the transaction must not wait for the pooled
	// connection the transaction already holds.
	deadline, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, db.WithTransaction(deadline, func(tx *sql.Tx) error {
		return insertFolder(tx, "f2")
	}))

	folder, err := folders.GetFolder(ctx, "f2")
	require.NoError(t, err)
	require.Equal(t, "Inbox", folder.Title)
}

func TestFolderRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	ids := []string{"b-folder", "a-folder"}
	repo := NewFolderRepository(db, func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}, func() time.Time { return now })

	work, err := repo.CreateFolder(ctx, persistence.Folder{Title: "Work"})
	require.NoError(t, err)
	require.Equal(t, "b-folder", work.ID)
	require.Equal(t, now, work.CreatedAt)

	_, err = repo.CreateFolder(ctx, persistence.Folder{Title: "Archive"})
	require.NoError(t, err)

	fetched, err := repo.GetFolder(ctx, "b-folder")
	require.NoError(t, err)
	require.Equal(t, work, fetched)

	folders, err := repo.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	require.Equal(t, "Archive", folders[0].Title)

	_, err = repo.CreateFolder(ctx, persistence.Folder{ID: "b-folder", Title: "Again"})
	require.ErrorIs(t, err, persistence.ErrDuplicate)

	_, err = repo.GetFolder(ctx, "absent")
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestNoteRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	clock := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	repo := NewNoteRepository(db, nil, func() time.Time { return clock })

	lat := 48.8566
	note, err := repo.CreateNote(ctx, persistence.Note{
		ParentID: "folder-1",
		Title:    "Groceries",
		Body:     "milk, eggs",
		IsTodo:   true,
		Latitude: &lat,
	})
	require.NoError(t, err)
	require.Len(t, note.ID, 32)

	fetched, err := repo.GetNote(ctx, note.ID)
	require.NoError(t, err)
	require.Equal(t, note, fetched)
	require.Nil(t, fetched.Longitude)
	require.Nil(t, fetched.TodoCompleted)

	second, err := repo.CreateNote(ctx, persistence.Note{ParentID: "folder-1", Title: "Second"})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	completed := clock
	fetched.Title = "Groceries (done)"
	fetched.TodoCompleted = &completed
	fetched.Latitude = nil

	updated, err := repo.UpdateNote(ctx, fetched)
	require.NoError(t, err)
	require.Equal(t, "Groceries (done)", updated.Title)
	require.Equal(t, clock, updated.UpdatedAt)
	require.Equal(t, note.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.TodoCompleted)
	require.True(t, completed.Equal(*updated.TodoCompleted))
	require.Nil(t, updated.Latitude)

	notes, err := repo.ListNotes(ctx, "folder-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, updated.ID, notes[0].ID, "most recently updated note comes first")
	require.Equal(t, second.ID, notes[1].ID)

	require.NoError(t, repo.DeleteNote(ctx, note.ID))
	require.ErrorIs(t, repo.DeleteNote(ctx, note.ID), persistence.ErrNotFound)

	_, err = repo.GetNote(ctx, note.ID)
	require.ErrorIs(t, err, persistence.ErrNotFound)

	_, err = repo.UpdateNote(ctx, persistence.Note{ID: "missing", Title: "x"})
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestOpen_SkipMigrations(t *testing.T) {
	ctx := context.Background()
	cfg := TestConfig(filepath.Join(t.TempDir(), "notes.sqlite"))
	cfg.SkipMigrations = true

	db, err := Open(ctx, cfg, nil, nil)
	require.NoError(t, err)
	require.Zero(t, db.Applied())

	status, err := db.Migrator().Status(ctx)
	require.NoError(t, err)
	require.Zero(t, status.CurrentVersion)
	require.Len(t, status.Pending, migration.DefaultRegistry().Latest())

	var tables int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM sqlite_master`).Scan(&tables))
	require.Zero(t, tables, "inspecting a fresh database must leave it empty")
	require.NoError(t, db.Close())

	cfg.SkipMigrations = false
	db, err = Open(ctx, cfg, nil, nil)
	require.NoError(t, err)
	defer db.Close()
	require.Equal(t, len(status.Pending), db.Applied())
}
