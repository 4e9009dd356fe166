package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stackmesh/chunkstore/internal/model"
	"github.com/stackmesh/chunkstore/internal/repo"
	"github.com/stackmesh/chunkstore/test/testutil"
)

func TestEmbeddingCacheRepo(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	if _, err := db.Exec("TRUNCATE TABLE embedding_cache"); err != nil {
		t.Fatalf("truncate embedding_cache: %v", err)
	}

	cache := repo.NewEmbeddingCacheRepo(db)
	now := time.Now().Unix()

	_, found, err := cache.Get(context.Background(), "text-embedding-3-small", "hash-1")
	require.NoError(t, err)
	require.False(t, found)

	item := &model.EmbeddingCache{
		ModelName:   "text-embedding-3-small",
		ContentHash: "hash-1",
		Embedding:   fill(0.2, model.DimensionsOpenAI),
		Ctime:       now,
	}
	require.NoError(t, cache.Save(context.Background(), item))

	values, found, err := cache.Get(context.Background(), "text-embedding-3-small", "hash-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, values, model.DimensionsOpenAI)

	// Saving the same key again overwrites in place.
	item.Embedding = fill(0.9, model.DimensionsOpenAI)
	require.NoError(t, cache.Save(context.Background(), item))
	values, found, err = cache.Get(context.Background(), "text-embedding-3-small", "hash-1")
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 0.9, values[0], 1e-6)

	deleted, err := cache.DeleteBefore(context.Background(), now+1)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
}
