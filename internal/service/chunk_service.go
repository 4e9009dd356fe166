package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stackmesh/chunkstore/internal/embed"
	"github.com/stackmesh/chunkstore/internal/model"
	appErr "github.com/stackmesh/chunkstore/internal/pkg/errors"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

type ChunkService struct {
	store    ChunkStore
	embedder embed.IEmbedder
}

func NewChunkService(store ChunkStore, embedder embed.IEmbedder) *ChunkService {
	return &ChunkService{store: store, embedder: embedder}
}

// UpsertInput carries one write. The provider selection is passed separately
// because bulk writes share a single selection across all items.
type UpsertInput struct {
	ID              int64                  `json:"id"`
	ChannelID       int64                  `json:"channel_id"`
	UserID          int64                  `json:"user_id"`
	WriterChannelID *int64                 `json:"writer_channel_id"`
	Content         string                 `json:"content"`
	Metadata        map[string]interface{} `json:"metadata"`
	EmbeddingMiniLM []float32              `json:"embedding_minilm"`
}

// CreateInput is the direct-write path: embeddings arrive precomputed and the
// server generates nothing.
type CreateInput struct {
	ChannelID       int64                  `json:"channel_id"`
	UserID          int64                  `json:"user_id"`
	WriterChannelID *int64                 `json:"writer_channel_id"`
	Content         string                 `json:"content"`
	Metadata        map[string]interface{} `json:"metadata"`
	EmbeddingOpenAI []float32              `json:"embedding_openai"`
	EmbeddingMiniLM []float32              `json:"embedding_minilm"`
}

// Upsert validates, resolves the embeddings implied by sel and writes one
// chunk. A supplied id updates the existing (id, channel_id) row in place,
// touching only the selected embedding column(s); an id unknown to that
// channel creates the row under it.
func (s *ChunkService) Upsert(ctx context.Context, sel model.Provider, in *UpsertInput) (*model.Chunk, Action, error) {
	if err := validateSelection(sel); err != nil {
		return nil, "", err
	}
	if err := validateUpsert(in); err != nil {
		return nil, "", err
	}
	pair, err := s.resolveEmbeddings(ctx, sel, in)
	if err != nil {
		return nil, "", err
	}
	chunk := &model.Chunk{
		ID:              in.ID,
		ChannelID:       in.ChannelID,
		UserID:          in.UserID,
		WriterChannelID: in.WriterChannelID,
		Content:         in.Content,
		Embeddings:      pair,
		Provider:        sel,
		Metadata:        in.Metadata,
	}
	if in.ID > 0 {
		err := s.store.Update(ctx, chunk, sel)
		if err == nil {
			updated, err := s.store.Get(ctx, in.ID, in.ChannelID)
			if err != nil {
				return nil, "", err
			}
			return updated, ActionUpdated, nil
		}
		if !errors.Is(err, appErr.ErrNotFound) {
			return nil, "", err
		}
		// Key not present for this channel yet: fall through and create it.
	}
	chunk.Ctime = time.Now().Unix()
	id, err := s.store.Insert(ctx, chunk)
	if err != nil {
		return nil, "", err
	}
	chunk.ID = id
	return chunk, ActionCreated, nil
}

// Create inserts a chunk from caller-supplied vectors only. At least one of
// the two embeddings must be present so no row ever exists without a vector.
func (s *ChunkService) Create(ctx context.Context, in *CreateInput) (*model.Chunk, error) {
	if in.Content == "" {
		return nil, appErr.MissingField("content")
	}
	if in.ChannelID == 0 {
		return nil, appErr.MissingField("channel_id")
	}
	if in.UserID == 0 {
		return nil, appErr.MissingField("user_id")
	}
	pair := model.EmbeddingPair{OpenAI: in.EmbeddingOpenAI, MiniLM: in.EmbeddingMiniLM}
	if pair.Empty() {
		return nil, fmt.Errorf("%w: at least one of embedding_openai, embedding_minilm is required", appErr.ErrMissingEmbedding)
	}
	if len(pair.OpenAI) > 0 && len(pair.OpenAI) != model.DimensionsOpenAI {
		return nil, appErr.BadDimensions("embedding_openai", model.DimensionsOpenAI, len(pair.OpenAI))
	}
	if len(pair.MiniLM) > 0 && len(pair.MiniLM) != model.DimensionsMiniLM {
		return nil, appErr.BadDimensions("embedding_minilm", model.DimensionsMiniLM, len(pair.MiniLM))
	}
	chunk := &model.Chunk{
		ChannelID:       in.ChannelID,
		UserID:          in.UserID,
		WriterChannelID: in.WriterChannelID,
		Content:         in.Content,
		Embeddings:      pair,
		Provider:        pair.Tag(),
		Metadata:        in.Metadata,
		Ctime:           time.Now().Unix(),
	}
	id, err := s.store.Insert(ctx, chunk)
	if err != nil {
		return nil, err
	}
	chunk.ID = id
	return chunk, nil
}

type BulkItemResult struct {
	Success bool         `json:"success"`
	Chunk   *model.Chunk `json:"chunk,omitempty"`
	Action  Action       `json:"action,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type BulkResult struct {
	Results      []BulkItemResult `json:"results"`
	SuccessCount int              `json:"success_count"`
	ErrorCount   int              `json:"error_count"`
	Total        int              `json:"total"`
}

// BulkUpsert applies Upsert to each item in input order with per-item fault
// isolation: one item failing is recorded in its result slot and never stops
// the rest or rolls back earlier writes. Only an invalid provider selection
// aborts the batch, and it does so before any item is attempted.
func (s *ChunkService) BulkUpsert(ctx context.Context, sel model.Provider, items []*UpsertInput) (*BulkResult, error) {
	if err := validateSelection(sel); err != nil {
		return nil, err
	}
	result := &BulkResult{
		Results: make([]BulkItemResult, 0, len(items)),
		Total:   len(items),
	}
	for i, item := range items {
		chunk, action, err := s.Upsert(ctx, sel, item)
		if err != nil {
			var channelID int64
			if item != nil {
				channelID = item.ChannelID
			}
			logutil.GetLogger(ctx).Warn("bulk upsert item failed",
				zap.Int("index", i), zap.Int64("channel_id", channelID), zap.Error(err))
			result.Results = append(result.Results, BulkItemResult{Success: false, Error: err.Error()})
			result.ErrorCount++
			continue
		}
		result.Results = append(result.Results, BulkItemResult{Success: true, Chunk: chunk, Action: action})
		result.SuccessCount++
	}
	return result, nil
}

// BackfillOpenAIEmbeddings fills the remote-space column of chunks that only
// carry a local vector. Per-chunk failures log and skip so one bad chunk
// cannot stall the batch.
func (s *ChunkService) BackfillOpenAIEmbeddings(ctx context.Context, batchSize int) error {
	chunks, err := s.store.ListMissingOpenAI(ctx, batchSize)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		values, err := s.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			logutil.GetLogger(ctx).Warn("backfill embedding failed",
				zap.Int64("id", chunk.ID), zap.Int64("channel_id", chunk.ChannelID), zap.Error(err))
			if errors.Is(err, appErr.ErrProviderNotConfigured) {
				return err
			}
			continue
		}
		tag := model.ProviderOpenAI
		if len(chunk.Embeddings.MiniLM) > 0 {
			tag = model.ProviderBoth
		}
		if err := s.store.SetOpenAIEmbedding(ctx, chunk.ID, chunk.ChannelID, values, tag); err != nil {
			logutil.GetLogger(ctx).Warn("backfill write failed",
				zap.Int64("id", chunk.ID), zap.Int64("channel_id", chunk.ChannelID), zap.Error(err))
		}
	}
	return nil
}

// resolveEmbeddings enforces the per-provider embedding contract. The
// caller-supplied local vector is checked before any remote call so a "both"
// write can never generate remotely and then fail locally.
func (s *ChunkService) resolveEmbeddings(ctx context.Context, sel model.Provider, in *UpsertInput) (model.EmbeddingPair, error) {
	var pair model.EmbeddingPair
	if sel.TargetsMiniLM() {
		if len(in.EmbeddingMiniLM) == 0 {
			return pair, fmt.Errorf("%w: provider %s requires a caller-supplied embedding_minilm", appErr.ErrMissingEmbedding, model.ProviderMiniLM)
		}
		if len(in.EmbeddingMiniLM) != model.DimensionsMiniLM {
			return pair, appErr.BadDimensions("embedding_minilm", model.DimensionsMiniLM, len(in.EmbeddingMiniLM))
		}
		pair.MiniLM = in.EmbeddingMiniLM
	}
	if sel.TargetsOpenAI() {
		values, err := s.embedder.Embed(ctx, in.Content)
		if err != nil {
			return model.EmbeddingPair{}, err
		}
		pair.OpenAI = values
	}
	return pair, nil
}

func validateSelection(sel model.Provider) error {
	switch sel {
	case model.ProviderOpenAI, model.ProviderMiniLM, model.ProviderBoth:
		return nil
	}
	return fmt.Errorf("%w: %q", appErr.ErrInvalidProvider, sel)
}

func validateUpsert(in *UpsertInput) error {
	if in == nil {
		return appErr.MissingField("item")
	}
	if in.Content == "" {
		return appErr.MissingField("content")
	}
	if in.ChannelID == 0 {
		return appErr.MissingField("channel_id")
	}
	if in.UserID == 0 {
		return appErr.MissingField("user_id")
	}
	return nil
}
