package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/notesdb/internal/persistence"
)

var (
	folderCounter uint64
	noteCounter   uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime is the baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// FolderOption configures a folder fixture.
type FolderOption func(*persistence.Folder)

// WithFolderTitle overrides the folder title.
func WithFolderTitle(title string) FolderOption {
	return func(f *persistence.Folder) { f.Title = title }
}

// NewFolder returns a folder with a unique title and no ID, ready to be created.
func NewFolder(opts ...FolderOption) persistence.Folder {
	idx := atomic.AddUint64(&folderCounter, 1)
	folder := persistence.Folder{Title: fmt.Sprintf("Folder %03d", idx)}
	for _, opt := range opts {
		opt(&folder)
	}
	return folder
}

// NoteOption configures a note fixture.
type NoteOption func(*persistence.Note)

// InFolder places the note in the folder with the given ID.
func InFolder(id string) NoteOption {
	return func(n *persistence.Note) { n.ParentID = id }
}

// WithTitle overrides the note title.
func WithTitle(title string) NoteOption {
	return func(n *persistence.Note) { n.Title = title }
}

// AsTodo marks the note as a to-do, completed at the given time when non-nil.
func AsTodo(completed *time.Time) NoteOption {
	return func(n *persistence.Note) {
		n.IsTodo = true
		n.TodoCompleted = completed
	}
}

// At sets the note's coordinates.
func At(latitude, longitude float64) NoteOption {
	return func(n *persistence.Note) {
		n.Latitude = &latitude
		n.Longitude = &longitude
	}
}

// NewNote returns a note with a unique title and body and no ID.
func NewNote(opts ...NoteOption) persistence.Note {
	idx := atomic.AddUint64(&noteCounter, 1)
	note := persistence.Note{
		Title: fmt.Sprintf("Note %03d", idx),
		Body:  fmt.Sprintf("Body of note %03d", idx),
	}
	for _, opt := range opts {
		opt(&note)
	}
	return note
}
