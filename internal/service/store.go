package service

import (
	"context"

	"github.com/stackmesh/chunkstore/internal/model"
)

// ChunkStore is the persistence contract the services depend on. *repo.ChunkRepo
// is the production implementation.
type ChunkStore interface {
	Insert(ctx context.Context, chunk *model.Chunk) (int64, error)
	Update(ctx context.Context, chunk *model.Chunk, sel model.Provider) error
	SetOpenAIEmbedding(ctx context.Context, id, channelID int64, values []float32, tag model.Provider) error
	Get(ctx context.Context, id, channelID int64) (*model.Chunk, error)
	Search(ctx context.Context, provider model.Provider, query []float32, limit int) ([]model.Chunk, error)
	ListMissingOpenAI(ctx context.Context, limit int) ([]model.Chunk, error)
}
