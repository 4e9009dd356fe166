package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stackmesh/chunkstore/internal/embed"
)

// WrapLruCacheToEmbedder memoizes embeddings per model and content hash in an
// in-process expirable LRU.
func WrapLruCacheToEmbedder(e embed.IEmbedder, size int, ttl time.Duration) embed.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  embed.IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cacheKey, _, _ := buildCacheKey(l.next.ModelName(), text)
	if cached, ok := l.cache.Get(cacheKey); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (lru)", zap.String("model", l.next.ModelName()))
		return cloneEmbedding(cached), nil
	}
	res, err := l.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	l.cache.Add(cacheKey, cloneEmbedding(res))
	return res, nil
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}

func (l *lruEmbedder) Dimensions() int {
	return l.next.Dimensions()
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}

func buildCacheKey(modelName, text string) (string, string, string) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	contentHash := hex.EncodeToString(hash[:])
	return "embed:" + modelName + ":" + contentHash, contentHash, modelName
}
