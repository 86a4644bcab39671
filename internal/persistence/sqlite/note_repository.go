package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/notesdb/internal/persistence"
	"github.com/example/notesdb/internal/persistence/sqlite/query"
)

const noteColumns = `id, parent_id, title, body, created_time, updated_time, is_todo, todo_completed, latitude, longitude`

// NoteRepository implements persistence.NoteRepository using SQLite
type NoteRepository struct {
	db    *Database
	newID IDGenerator
	now   func() time.Time
}

// NewNoteRepository creates a new SQLite note repository. Nil generators
// default to NewID and time.Now.
func NewNoteRepository(db *Database, newID IDGenerator, now func() time.Time) *NoteRepository {
	if newID == nil {
		newID = NewID
	}
	if now == nil {
		now = time.Now
	}
	return &NoteRepository{db: db, newID: newID, now: now}
}

// CreateNote inserts a note, assigning an ID and timestamps when missing.
func (r *NoteRepository) CreateNote(ctx context.Context, note persistence.Note) (persistence.Note, error) {
	if note.ID == "" {
		note.ID = r.newID()
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = now
	}
	note.CreatedAt = note.CreatedAt.UTC().Truncate(time.Millisecond)
	note.UpdatedAt = note.UpdatedAt.UTC().Truncate(time.Millisecond)

	fields := []string{"id", "parent_id", "title", "body", "created_time", "updated_time", "is_todo", "todo_completed", "latitude", "longitude"}
	values := append([]query.Value{
		query.String(note.ID),
		query.String(note.ParentID),
		query.String(note.Title),
		query.String(note.Body),
		query.Int64(toMillis(note.CreatedAt)),
		query.Int64(toMillis(note.UpdatedAt)),
	}, noteStateValues(note)...)

	if err := r.exec(ctx, query.Insert, fields, values, ""); err != nil {
		return persistence.Note{}, err
	}

	return note, nil
}

// UpdateNote updates the mutable fields of an existing note and bumps its
// updated time.
func (r *NoteRepository) UpdateNote(ctx context.Context, note persistence.Note) (persistence.Note, error) {
	if note.ID == "" {
		return persistence.Note{}, persistence.ErrNotFound
	}
	note.UpdatedAt = r.now().UTC().Truncate(time.Millisecond)

	fields := []string{"parent_id", "title", "body", "updated_time", "is_todo", "todo_completed", "latitude", "longitude"}
	values := append([]query.Value{
		query.String(note.ParentID),
		query.String(note.Title),
		query.String(note.Body),
		query.Int64(toMillis(note.UpdatedAt)),
	}, noteStateValues(note)...)

	if err := r.exec(ctx, query.Update, fields, values, "id = "+query.Quote(note.ID)); err != nil {
		return persistence.Note{}, err
	}

	return r.GetNote(ctx, note.ID)
}

// GetNote retrieves a note by ID
func (r *NoteRepository) GetNote(ctx context.Context, id string) (persistence.Note, error) {
	if id == "" {
		return persistence.Note{}, persistence.ErrNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err != nil {
		return persistence.Note{}, mapError(err)
	}
	return note, nil
}

// ListNotes returns the notes of a folder, most recently updated first
func (r *NoteRepository) ListNotes(ctx context.Context, parentID string) ([]persistence.Note, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE parent_id = ? ORDER BY updated_time DESC, id ASC`, parentID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var notes []persistence.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, mapError(err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return notes, nil
}

// DeleteNote removes a note by ID
func (r *NoteRepository) DeleteNote(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func (r *NoteRepository) exec(ctx context.Context, typ query.Type, fields []string, values []query.Value, where string) error {
	stmt, err := r.db.BuildQuery(ctx, typ, "notes", fields, values, where)
	if err != nil {
		return err
	}
	defer stmt.Close()

	result, err := stmt.Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	if typ == query.Update {
		return requireAffected(result)
	}
	return nil
}

// noteStateValues returns the values of is_todo, todo_completed, latitude and longitude.
func noteStateValues(note persistence.Note) []query.Value {
	isTodo := 0
	if note.IsTodo {
		isTodo = 1
	}

	completed := query.Int64(0)
	if note.TodoCompleted != nil {
		completed = query.Int64(toMillis(*note.TodoCompleted))
	}

	latitude, longitude := query.Null(), query.Null()
	if note.Latitude != nil {
		latitude = query.Float64(*note.Latitude)
	}
	if note.Longitude != nil {
		longitude = query.Float64(*note.Longitude)
	}

	return []query.Value{query.Int(isTodo), completed, latitude, longitude}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (persistence.Note, error) {
	var (
		note                persistence.Note
		created, updated    int64
		isTodo, completed   int64
		latitude, longitude sql.NullFloat64
	)

	if err := row.Scan(&note.ID, &note.ParentID, &note.Title, &note.Body,
		&created, &updated, &isTodo, &completed, &latitude, &longitude); err != nil {
		return persistence.Note{}, err
	}

	note.CreatedAt = fromMillis(created)
	note.UpdatedAt = fromMillis(updated)
	note.IsTodo = isTodo != 0
	if completed != 0 {
		t := fromMillis(completed)
		note.TodoCompleted = &t
	}
	if latitude.Valid {
		note.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		note.Longitude = &longitude.Float64
	}

	return note, nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

var _ persistence.NoteRepository = (*NoteRepository)(nil)
