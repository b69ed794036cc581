package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

func openTestStores(t *testing.T) map[string]Store {
	t.Helper()
	boltStore, err := NewBolt(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { boltStore.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"bolt":   boltStore,
	}
}

func TestStorePutGetDelete(t *testing.T) {
	for name, store := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Get(ctx, "projects/p1/documents/d1")
			require.ErrorIs(t, err, appErr.ErrNotFound)

			require.NoError(t, store.Put(ctx, "projects/p1/documents/d1", Fields{"name": "plan.pdf", "size": float64(10)}))
			fields, err := store.Get(ctx, "projects/p1/documents/d1")
			require.NoError(t, err)
			require.Equal(t, "plan.pdf", fields["name"])

			require.NoError(t, store.Delete(ctx, "projects/p1/documents/d1"))
			_, err = store.Get(ctx, "projects/p1/documents/d1")
			require.ErrorIs(t, err, appErr.ErrNotFound)

			// Deleting an absent record is not an error.
			require.NoError(t, store.Delete(ctx, "projects/p1/documents/d1"))
		})
	}
}

func TestStoreMergePreservesUnrelatedFields(t *testing.T) {
	for name, store := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := "projects/p1/documents/d1/annotations/default"
			require.NoError(t, store.Put(ctx, path, Fields{"highlights": []interface{}{}, "custom": "kept"}))
			require.NoError(t, store.Merge(ctx, path, Fields{"highlights": []interface{}{"h1"}, "updated_at": float64(42)}))

			fields, err := store.Get(ctx, path)
			require.NoError(t, err)
			require.Equal(t, "kept", fields["custom"])
			require.Equal(t, float64(42), fields["updated_at"])
			require.Len(t, fields["highlights"], 1)
		})
	}
}

func TestStoreMergeCreatesRecord(t *testing.T) {
	for name, store := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Merge(ctx, "projects/p1/fresh", Fields{"a": "b"}))
			fields, err := store.Get(ctx, "projects/p1/fresh")
			require.NoError(t, err)
			require.Equal(t, "b", fields["a"])
		})
	}
}

func TestStoreListOrderedByPath(t *testing.T) {
	for name, store := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			prefix := "projects/p1/documents/d1/chunks/"
			require.NoError(t, store.Put(ctx, prefix+"000002", Fields{"index": float64(2)}))
			require.NoError(t, store.Put(ctx, prefix+"000000", Fields{"index": float64(0)}))
			require.NoError(t, store.Put(ctx, prefix+"000001", Fields{"index": float64(1)}))
			require.NoError(t, store.Put(ctx, "projects/p1/documents/d2", Fields{"name": "other"}))

			paths, err := store.ListPaths(ctx, prefix)
			require.NoError(t, err)
			require.Equal(t, []string{prefix + "000000", prefix + "000001", prefix + "000002"}, paths)

			records, err := store.List(ctx, prefix)
			require.NoError(t, err)
			require.Len(t, records, 3)
			require.Equal(t, float64(0), records[0].Fields["index"])
			require.Equal(t, float64(2), records[2].Fields["index"])
		})
	}
}

func TestRegistryNew(t *testing.T) {
	store, err := New("memory", nil)
	require.NoError(t, err)
	require.NotNil(t, store)

	_, err = New("nope", nil)
	require.ErrorIs(t, err, appErr.ErrNotConfigured)
}
