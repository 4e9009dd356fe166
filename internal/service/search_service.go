package service

import (
	"context"

	"github.com/stackmesh/chunkstore/internal/embed"
	"github.com/stackmesh/chunkstore/internal/model"
	appErr "github.com/stackmesh/chunkstore/internal/pkg/errors"
)

const DefaultSearchLimit = 5

type SearchService struct {
	store    ChunkStore
	embedder embed.IEmbedder
}

func NewSearchService(store ChunkStore, embedder embed.IEmbedder) *SearchService {
	return &SearchService{store: store, embedder: embedder}
}

type SearchInput struct {
	Provider  model.Provider
	Text      string
	Embedding []float32
	Limit     int
}

// Search routes a similarity query to the embedding column matching the
// provider selection. The remote provider embeds the query text server-side
// (a supplied vector is ignored); the local provider requires a precomputed
// vector of exactly its dimensionality. Rows without the selected embedding
// never appear in results. Read-only.
func (s *SearchService) Search(ctx context.Context, in *SearchInput) ([]model.Chunk, error) {
	var query []float32
	switch in.Provider {
	case model.ProviderOpenAI:
		if in.Text == "" {
			return nil, appErr.MissingField("text")
		}
		values, err := s.embedder.Embed(ctx, in.Text)
		if err != nil {
			return nil, err
		}
		query = values
	case model.ProviderMiniLM:
		if len(in.Embedding) == 0 {
			return nil, appErr.MissingField("embedding")
		}
		if len(in.Embedding) != model.DimensionsMiniLM {
			return nil, appErr.BadDimensions("embedding", model.DimensionsMiniLM, len(in.Embedding))
		}
		query = in.Embedding
	default:
		return nil, appErr.ErrInvalidProvider
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	results, err := s.store.Search(ctx, in.Provider, query, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.Chunk{}
	}
	return results, nil
}

// EmbedText exposes server-side embedding generation for the remote provider.
func (s *SearchService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, appErr.MissingField("text")
	}
	return s.embedder.Embed(ctx, text)
}
