// Package storetest holds the behaviour every store.Store must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appmigrate/appmigrate/store"
)

// Run exercises a fresh, empty store returned by newStore for every subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("empty", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		names, err := s.Installed(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		ok, err := s.IsInstalled(ctx, "app.foo")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("insertion order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, name := range []string{"app.c", "app.a", "app.b"} {
			require.NoError(t, s.Add(ctx, name))
		}

		names, err := s.Installed(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"app.c", "app.a", "app.b"}, names)
	})

	t.Run("add is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Add(ctx, "app.a"))
		require.NoError(t, s.Add(ctx, "app.b"))
		require.NoError(t, s.Add(ctx, "app.a"))

		names, err := s.Installed(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"app.a", "app.b"}, names)
	})

	t.Run("remove", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Add(ctx, "app.a"))
		require.NoError(t, s.Add(ctx, "app.b"))
		require.NoError(t, s.Remove(ctx, "app.a"))
		require.NoError(t, s.Remove(ctx, "app.missing"))

		names, err := s.Installed(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"app.b"}, names)

		ok, err := s.IsInstalled(ctx, "app.a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("re-add after remove goes last", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Add(ctx, "app.a"))
		require.NoError(t, s.Add(ctx, "app.b"))
		require.NoError(t, s.Remove(ctx, "app.a"))
		require.NoError(t, s.Add(ctx, "app.a"))

		names, err := s.Installed(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"app.b", "app.a"}, names)
	})

	t.Run("rejects empty names", func(t *testing.T) {
		s := newStore(t)

		assert.ErrorIs(t, s.Add(context.Background(), ""), store.ErrInvalidName)
		assert.ErrorIs(t, s.Add(context.Background(), "  "), store.ErrInvalidName)
	})

	t.Run("concurrent adds", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Add(ctx, fmt.Sprintf("app.m%d", i%4)))
			}(i)
		}
		wg.Wait()

		names, err := s.Installed(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"app.m0", "app.m1", "app.m2", "app.m3"}, names)
	})
}
