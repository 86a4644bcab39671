package sqlite

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator returns a new record identifier.
type IDGenerator func() string

// NewID returns a random 32 character hexadecimal identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Timestamps are stored as Unix milliseconds.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
