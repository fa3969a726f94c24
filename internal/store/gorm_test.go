package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newObjectStore(t *testing.T) *GormObjectStore {
	t.Helper()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "objects.db"))
	require.NoError(t, err)
	return NewGormObjectStore(db)
}

func TestObjectStorePutIfAbsent(t *testing.T) {
	g := newObjectStore(t)
	ctx := context.Background()

	require.NoError(t, g.PutIfAbsent(ctx, "a", []byte("one")))
	require.ErrorIs(t, g.PutIfAbsent(ctx, "a", []byte("two")), ErrConflict)

	// The losing write must not have replaced the value.
	v, err := g.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []byte("one"), v)
}

func TestObjectStorePutOverwritesAndDeleteIsIdempotent(t *testing.T) {
	g := newObjectStore(t)
	ctx := context.Background()

	require.NoError(t, g.Put(ctx, "a", []byte("one")))
	require.NoError(t, g.Put(ctx, "a", []byte("two")))

	v, err := g.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []byte("two"), v)

	require.NoError(t, g.Delete(ctx, "a"))
	require.NoError(t, g.Delete(ctx, "a"))

	_, err = g.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestObjectStoreListPagination(t *testing.T) {
	g := newObjectStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, g.Put(ctx, fmt.Sprintf("pending/%02d", i), []byte{byte(i)}))
	}
	require.NoError(t, g.Put(ctx, "canceled/00", []byte("x")))

	// First page.
	page, err := g.List(ctx, "pending/", "", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"pending/00", "pending/01"}, page.Keys)
	require.True(t, page.HasMore)
	require.Equal(t, "pending/01", page.NextToken)

	// Continue from the token.
	page, err = g.List(ctx, "pending/", page.NextToken, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"pending/02", "pending/03"}, page.Keys)
	require.True(t, page.HasMore)

	// Final page.
	page, err = g.List(ctx, "pending/", page.NextToken, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"pending/04"}, page.Keys)
	require.False(t, page.HasMore)
	require.Empty(t, page.NextToken)

	// No prefix scans everything.
	page, err = g.List(ctx, "", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Keys, 6)
}
