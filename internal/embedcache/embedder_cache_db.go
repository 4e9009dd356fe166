package embedcache

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stackmesh/chunkstore/internal/embed"
	"github.com/stackmesh/chunkstore/internal/model"
	"github.com/stackmesh/chunkstore/internal/repo"
)

// WrapDBCacheToEmbedder persists embeddings in the store so identical content
// survives process restarts without another remote round trip. Cache write
// failures only log; the embedding itself is still returned.
func WrapDBCacheToEmbedder(e embed.IEmbedder, cacheRepo *repo.EmbeddingCacheRepo) embed.IEmbedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEmbedder{next: e, repo: cacheRepo}
}

type dbEmbedder struct {
	next embed.IEmbedder
	repo *repo.EmbeddingCacheRepo
}

func (d *dbEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	_, contentHash, modelName := buildCacheKey(d.next.ModelName(), text)
	values, ok, err := d.repo.Get(ctx, modelName, contentHash)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding cache read failed", zap.Error(err))
		ok = false
	}
	if ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (db)", zap.String("model", modelName))
		return values, nil
	}
	res, err := d.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := d.repo.Save(ctx, &model.EmbeddingCache{
		ModelName:   modelName,
		ContentHash: contentHash,
		Embedding:   res,
		Ctime:       time.Now().Unix(),
	}); err != nil {
		logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
	}
	return res, nil
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}

func (d *dbEmbedder) Dimensions() int {
	return d.next.Dimensions()
}
