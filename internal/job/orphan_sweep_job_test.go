package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftmark/draftmark/internal/kvstore"
)

func TestOrphanSweep(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()

	// A live document keeps its records.
	require.NoError(t, kv.Put(ctx, "projects/p1/documents/live", kvstore.Fields{"name": "live"}))
	require.NoError(t, kv.Put(ctx, "projects/p1/documents/live/chunks/000000", kvstore.Fields{"index": 0, "data": "QQ=="}))

	// Orphaned chunk and annotation records with no metadata record.
	require.NoError(t, kv.Put(ctx, "projects/p1/documents/ghost/chunks/000000", kvstore.Fields{"index": 0, "data": "QQ=="}))
	require.NoError(t, kv.Put(ctx, "projects/p1/documents/ghost/chunks/000001", kvstore.Fields{"index": 1, "data": "Qg=="}))
	require.NoError(t, kv.Put(ctx, "projects/p1/documents/ghost/annotations/default", kvstore.Fields{"highlights": []interface{}{}}))

	require.NoError(t, NewOrphanSweepJob(kv).Run(ctx))

	paths, err := kv.ListPaths(ctx, "projects/p1/documents/ghost")
	require.NoError(t, err)
	require.Empty(t, paths)

	paths, err = kv.ListPaths(ctx, "projects/p1/documents/live")
	require.NoError(t, err)
	require.Len(t, paths, 2)
}
