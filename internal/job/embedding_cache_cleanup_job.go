package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stackmesh/chunkstore/internal/repo"
)

// EmbeddingCacheCleanupJob expires persisted embedding-cache rows older than
// the retention window.
type EmbeddingCacheCleanupJob struct {
	cache     *repo.EmbeddingCacheRepo
	retention time.Duration
}

func NewEmbeddingCacheCleanupJob(cache *repo.EmbeddingCacheRepo, retention time.Duration) *EmbeddingCacheCleanupJob {
	return &EmbeddingCacheCleanupJob{cache: cache, retention: retention}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.cache == nil || j.retention <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-j.retention).Unix()
	deleted, err := j.cache.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("expired embedding cache entries removed", zap.Int64("count", deleted))
	}
	return nil
}
