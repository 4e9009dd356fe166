package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/stackmesh/chunkstore/internal/model"
	"github.com/stackmesh/chunkstore/internal/pkg/dbutil"
	appErr "github.com/stackmesh/chunkstore/internal/pkg/errors"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

const chunkColumns = "id, channel_id, user_id, writer_channel_id, content, embedding_openai, embedding_minilm, embed_provider, metadata, ctime"

// Insert writes a new row. When chunk.ID is zero the store assigns the id;
// otherwise the row is created under the supplied (id, channel_id) key.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *model.Chunk) (int64, error) {
	metadata, err := metadataArg(chunk.Metadata)
	if err != nil {
		return 0, err
	}
	var row *sql.Row
	if chunk.ID > 0 {
		const query = `
			INSERT INTO chunks (id, channel_id, user_id, writer_channel_id, content, embedding_openai, embedding_minilm, embed_provider, metadata, ctime)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`
		row = r.db.QueryRowContext(ctx, query,
			chunk.ID, chunk.ChannelID, chunk.UserID, chunk.WriterChannelID, chunk.Content,
			vectorArg(chunk.Embeddings.OpenAI), vectorArg(chunk.Embeddings.MiniLM),
			string(chunk.Provider), metadata, chunk.Ctime,
		)
	} else {
		const query = `
			INSERT INTO chunks (channel_id, user_id, writer_channel_id, content, embedding_openai, embedding_minilm, embed_provider, metadata, ctime)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`
		row = r.db.QueryRowContext(ctx, query,
			chunk.ChannelID, chunk.UserID, chunk.WriterChannelID, chunk.Content,
			vectorArg(chunk.Embeddings.OpenAI), vectorArg(chunk.Embeddings.MiniLM),
			string(chunk.Provider), metadata, chunk.Ctime,
		)
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		if dbutil.IsConflict(err) {
			return 0, fmt.Errorf("%w: chunk %d already exists in channel %d", appErr.ErrInvalid, chunk.ID, chunk.ChannelID)
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites a row in place, touching only the embedding column(s)
// selected by sel. The untouched column and ctime keep their prior values.
func (r *ChunkRepo) Update(ctx context.Context, chunk *model.Chunk, sel model.Provider) error {
	metadata, err := metadataArg(chunk.Metadata)
	if err != nil {
		return err
	}
	where := map[string]interface{}{
		"id":         chunk.ID,
		"channel_id": chunk.ChannelID,
	}
	update := map[string]interface{}{
		"user_id":           chunk.UserID,
		"writer_channel_id": chunk.WriterChannelID,
		"content":           chunk.Content,
		"embed_provider":    string(chunk.Provider),
		"metadata":          metadata,
	}
	if sel.TargetsOpenAI() {
		update["embedding_openai"] = pgvector.NewVector(chunk.Embeddings.OpenAI)
	}
	if sel.TargetsMiniLM() {
		update["embedding_minilm"] = pgvector.NewVector(chunk.Embeddings.MiniLM)
	}
	sqlStr, args, err := builder.BuildUpdate("chunks", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// SetOpenAIEmbedding fills the remote-space column of an existing row without
// touching anything but the column and the advisory tag.
func (r *ChunkRepo) SetOpenAIEmbedding(ctx context.Context, id, channelID int64, values []float32, tag model.Provider) error {
	const query = `
		UPDATE chunks
		SET embedding_openai = $1, embed_provider = $2
		WHERE id = $3 AND channel_id = $4
	`
	result, err := r.db.ExecContext(ctx, query, pgvector.NewVector(values), string(tag), id, channelID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ChunkRepo) Get(ctx context.Context, id, channelID int64) (*model.Chunk, error) {
	where := map[string]interface{}{
		"id":         id,
		"channel_id": channelID,
	}
	sqlStr, args, err := builder.BuildSelect("chunks", where, []string{chunkColumns})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	return scanChunk(rows)
}

// Search returns up to limit chunks ordered by ascending cosine distance of
// the selected embedding column. Rows lacking that embedding never match.
// Distance ties come back in whatever order the store picks.
func (r *ChunkRepo) Search(ctx context.Context, provider model.Provider, query []float32, limit int) ([]model.Chunk, error) {
	column, err := embeddingColumn(provider)
	if err != nil {
		return nil, err
	}
	sqlStr := fmt.Sprintf(`
		SELECT %s FROM chunks
		WHERE %s IS NOT NULL
		ORDER BY %s <=> $1
		LIMIT $2
	`, chunkColumns, column, column)
	rows, err := r.db.QueryContext(ctx, sqlStr, pgvector.NewVector(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *chunk)
	}
	return results, rows.Err()
}

// ListMissingOpenAI lists chunks whose remote-space column is still empty,
// oldest first, for the backfill job.
func (r *ChunkRepo) ListMissingOpenAI(ctx context.Context, limit int) ([]model.Chunk, error) {
	sqlStr := fmt.Sprintf(`
		SELECT %s FROM chunks
		WHERE embedding_openai IS NULL
		ORDER BY ctime ASC
		LIMIT $1
	`, chunkColumns)
	rows, err := r.db.QueryContext(ctx, sqlStr, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *chunk)
	}
	return results, rows.Err()
}

func scanChunk(rows *sql.Rows) (*model.Chunk, error) {
	var chunk model.Chunk
	var writerChannelID sql.NullInt64
	var embOpenAI, embMiniLM sql.NullString
	var provider string
	var metadata []byte
	if err := rows.Scan(
		&chunk.ID, &chunk.ChannelID, &chunk.UserID, &writerChannelID, &chunk.Content,
		&embOpenAI, &embMiniLM, &provider, &metadata, &chunk.Ctime,
	); err != nil {
		return nil, err
	}
	if writerChannelID.Valid {
		value := writerChannelID.Int64
		chunk.WriterChannelID = &value
	}
	if embOpenAI.Valid {
		values, err := parseVector(embOpenAI.String)
		if err != nil {
			return nil, err
		}
		chunk.Embeddings.OpenAI = values
	}
	if embMiniLM.Valid {
		values, err := parseVector(embMiniLM.String)
		if err != nil {
			return nil, err
		}
		chunk.Embeddings.MiniLM = values
	}
	chunk.Provider = model.Provider(provider)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &chunk.Metadata); err != nil {
			return nil, err
		}
	}
	return &chunk, nil
}

func parseVector(s string) ([]float32, error) {
	var vec pgvector.Vector
	if err := vec.Parse(s); err != nil {
		return nil, err
	}
	return vec.Slice(), nil
}

func vectorArg(values []float32) interface{} {
	if len(values) == 0 {
		return nil
	}
	return pgvector.NewVector(values)
}

func metadataArg(metadata map[string]interface{}) (interface{}, error) {
	if metadata == nil {
		return nil, nil
	}
	blob, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func embeddingColumn(provider model.Provider) (string, error) {
	switch provider {
	case model.ProviderOpenAI:
		return "embedding_openai", nil
	case model.ProviderMiniLM:
		return "embedding_minilm", nil
	}
	return "", fmt.Errorf("%w: %q", appErr.ErrInvalidProvider, provider)
}
