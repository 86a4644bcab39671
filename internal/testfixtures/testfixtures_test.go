package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	clock := NewClock(time.Time{})
	require.Equal(t, ReferenceTime(), clock.Now())

	start := time.Date(2024, time.March, 14, 9, 26, 53, 589793238, time.UTC)
	clock = NewClock(start)
	require.Equal(t, start.Truncate(time.Millisecond), clock.Now())

	now := clock.NowFunc()
	updated := clock.Advance(90 * time.Minute)
	require.Equal(t, updated, now())
	require.Equal(t, start.Truncate(time.Millisecond).Add(90*time.Minute), updated)
}

func TestIDGenerator(t *testing.T) {
	gen := NewIDGenerator("Note")

	first, second := gen.Next(), gen.Next()
	require.Equal(t, "note0000000000000000000000000001", first)
	require.Equal(t, "note0000000000000000000000000002", second)
	require.Len(t, first, 32)

	require.Len(t, NewIDGenerator("a-very-long-prefix-for-ids").Next(), 32)
}

func TestFixtures(t *testing.T) {
	a, b := NewNote(), NewNote(InFolder("f"), WithTitle("Shopping"), At(1, 2))
	require.NotEqual(t, a.Title, b.Title)
	require.Empty(t, a.ID)
	require.Equal(t, "f", b.ParentID)
	require.Equal(t, "Shopping", b.Title)
	require.Equal(t, 2.0, *b.Longitude)

	todo := NewNote(AsTodo(nil))
	require.True(t, todo.IsTodo)
	require.Nil(t, todo.TodoCompleted)

	require.Equal(t, "Inbox", NewFolder(WithFolderTitle("Inbox")).Title)
}

func TestSQLiteHarness(t *testing.T) {
	ctx := context.Background()
	h := NewSQLiteHarness(t)

	folder, err := h.Folders.CreateFolder(ctx, NewFolder())
	require.NoError(t, err)
	require.Equal(t, "fx000000000000000000000000000001", folder.ID)
	require.Equal(t, ReferenceTime(), folder.CreatedAt)

	note, err := h.Notes.CreateNote(ctx, NewNote(InFolder(folder.ID)))
	require.NoError(t, err)
	require.Equal(t, "fx000000000000000000000000000002", note.ID)

	version, err := h.DB.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, version)
}
