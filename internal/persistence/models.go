package persistence

import "time"

// Folder groups notes.
type Folder struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Note is a single note, optionally a to-do item.
type Note struct {
	ID            string
	ParentID      string
	Title         string
	Body          string
	IsTodo        bool
	TodoCompleted *time.Time
	Latitude      *float64
	Longitude     *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
