package sqlite

import (
	"context"
	"time"

	"github.com/example/notesdb/internal/persistence"
	"github.com/example/notesdb/internal/persistence/sqlite/query"
)

// FolderRepository implements persistence.FolderRepository using SQLite
type FolderRepository struct {
	db    *Database
	newID IDGenerator
	now   func() time.Time
}

// NewFolderRepository creates a new SQLite folder repository. Nil generators
// default to NewID and time.Now.
func NewFolderRepository(db *Database, newID IDGenerator, now func() time.Time) *FolderRepository {
	if newID == nil {
		newID = NewID
	}
	if now == nil {
		now = time.Now
	}
	return &FolderRepository{db: db, newID: newID, now: now}
}

// CreateFolder inserts a folder, assigning an ID and timestamps.
func (r *FolderRepository) CreateFolder(ctx context.Context, folder persistence.Folder) (persistence.Folder, error) {
	if folder.ID == "" {
		folder.ID = r.newID()
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	folder.CreatedAt = now
	folder.UpdatedAt = now

	stmt, err := r.db.BuildQuery(ctx, query.Insert, "folders",
		[]string{"id", "title", "created_time", "updated_time"},
		[]query.Value{
			query.String(folder.ID),
			query.String(folder.Title),
			query.Int64(toMillis(folder.CreatedAt)),
			query.Int64(toMillis(folder.UpdatedAt)),
		}, "")
	if err != nil {
		return persistence.Folder{}, err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(ctx); err != nil {
		return persistence.Folder{}, mapError(err)
	}

	return folder, nil
}

// GetFolder retrieves a folder by ID
func (r *FolderRepository) GetFolder(ctx context.Context, id string) (persistence.Folder, error) {
	var (
		folder           persistence.Folder
		created, updated int64
	)

	err := r.db.QueryRow(ctx,
		`SELECT id, title, created_time, updated_time FROM folders WHERE id = ?`, id,
	).Scan(&folder.ID, &folder.Title, &created, &updated)
	if err != nil {
		return persistence.Folder{}, mapError(err)
	}

	folder.CreatedAt = fromMillis(created)
	folder.UpdatedAt = fromMillis(updated)
	return folder, nil
}

// ListFolders returns all folders ordered by title
func (r *FolderRepository) ListFolders(ctx context.Context) ([]persistence.Folder, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, created_time, updated_time FROM folders ORDER BY title ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var folders []persistence.Folder
	for rows.Next() {
		var (
			folder           persistence.Folder
			created, updated int64
		)
		if err := rows.Scan(&folder.ID, &folder.Title, &created, &updated); err != nil {
			return nil, mapError(err)
		}
		folder.CreatedAt = fromMillis(created)
		folder.UpdatedAt = fromMillis(updated)
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return folders, nil
}

var _ persistence.FolderRepository = (*FolderRepository)(nil)
