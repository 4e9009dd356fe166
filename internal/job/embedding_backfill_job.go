package job

import (
	"context"

	"github.com/stackmesh/chunkstore/internal/service"
)

// EmbeddingBackfillJob periodically fills the remote-space column of chunks
// that were written with only a local vector.
type EmbeddingBackfillJob struct {
	chunks    *service.ChunkService
	batchSize int
}

func NewEmbeddingBackfillJob(chunks *service.ChunkService, batchSize int) *EmbeddingBackfillJob {
	return &EmbeddingBackfillJob{chunks: chunks, batchSize: batchSize}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	if j.chunks == nil {
		return nil
	}
	return j.chunks.BackfillOpenAIEmbeddings(ctx, j.batchSize)
}
