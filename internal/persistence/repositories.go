package persistence

import "context"

// FolderRepository exposes operations for folders.
type FolderRepository interface {
	CreateFolder(ctx context.Context, folder Folder) (Folder, error)
	GetFolder(ctx context.Context, id string) (Folder, error)
	ListFolders(ctx context.Context) ([]Folder, error)
}

// NoteRepository exposes CRUD operations for notes.
type NoteRepository interface {
	CreateNote(ctx context.Context, note Note) (Note, error)
	UpdateNote(ctx context.Context, note Note) (Note, error)
	GetNote(ctx context.Context, id string) (Note, error)
	ListNotes(ctx context.Context, parentID string) ([]Note, error)
	DeleteNote(ctx context.Context, id string) error
}
