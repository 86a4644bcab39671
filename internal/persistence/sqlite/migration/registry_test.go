package migration

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func noop(context.Context, *sql.Tx) error { return nil }

func TestRegistry_Register(t *testing.T) {
	r, err := NewRegistry(
		Step{Version: 1, Description: "one", Apply: noop},
		Step{Version: 2, Description: "two", Apply: noop},
	)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, r.Versions())
	require.Equal(t, 2, r.Latest())

	t.Run("rejects a version that does not increase", func(t *testing.T) {
		err := r.Register(Step{Version: 2, Apply: noop})
		require.ErrorIs(t, err, ErrVersionOrder)

		err = r.Register(Step{Version: 1, Apply: noop})
		require.ErrorIs(t, err, ErrVersionOrder)
		require.Equal(t, []int{1, 2}, r.Versions())
	})

	t.Run("rejects non-positive versions", func(t *testing.T) {
		require.ErrorIs(t, r.Register(Step{Version: 0, Apply: noop}), ErrInvalidVersion)
		require.ErrorIs(t, r.Register(Step{Version: -3, Apply: noop}), ErrInvalidVersion)
	})

	t.Run("rejects steps without apply function", func(t *testing.T) {
		require.ErrorIs(t, r.Register(Step{Version: 5}), ErrInvalidVersion)
	})

	t.Run("accepts gaps between versions", func(t *testing.T) {
		require.NoError(t, r.Register(Step{Version: 10, Apply: noop}))
		require.Equal(t, []int{1, 2, 10}, r.Versions())
	})
}

func TestRegistry_After(t *testing.T) {
	r, err := NewRegistry(
		Step{Version: 1, Apply: noop},
		Step{Version: 3, Apply: noop},
		Step{Version: 7, Apply: noop},
	)
	require.NoError(t, err)

	versionsOf := func(steps []Step) []int {
		out := []int{}
		for _, s := range steps {
			out = append(out, s.Version)
		}
		return out
	}

	steps, err := r.After(0)
	require.NoError(t, err)
	require.Equal(t, []int{1, 3, 7}, versionsOf(steps))

	steps, err = r.After(3)
	require.NoError(t, err)
	require.Equal(t, []int{7}, versionsOf(steps))

	steps, err = r.After(7)
	require.NoError(t, err)
	require.Empty(t, steps)

	_, err = r.After(2)
	require.ErrorIs(t, err, ErrUnknownVersion)

	_, err = r.After(8)
	require.True(t, errors.Is(err, ErrUnknownVersion))
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	require.Equal(t, []int{1, 2}, r.Versions())

	steps, err := r.After(0)
	require.NoError(t, err)
	for _, step := range steps {
		require.Len(t, step.Checksum, 64, "step %d should carry a checksum of its resource", step.Version)
	}
}
