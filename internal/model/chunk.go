package model

// EmbeddingPair holds the two optional embedding columns of a chunk. A nil
// slice means the chunk does not participate in that embedding space.
type EmbeddingPair struct {
	OpenAI []float32 `json:"openai,omitempty"`
	MiniLM []float32 `json:"minilm,omitempty"`
}

func (p EmbeddingPair) Empty() bool {
	return len(p.OpenAI) == 0 && len(p.MiniLM) == 0
}

// Tag derives the provider tag from the non-nil column set. The persisted
// provider tag is advisory; this is the authoritative view.
func (p EmbeddingPair) Tag() Provider {
	switch {
	case len(p.OpenAI) > 0 && len(p.MiniLM) > 0:
		return ProviderBoth
	case len(p.OpenAI) > 0:
		return ProviderOpenAI
	case len(p.MiniLM) > 0:
		return ProviderMiniLM
	}
	return ""
}

// Chunk is a stored unit of text content with its embedding vector(s).
// Identity is the (ID, ChannelID) pair: the store assigns IDs per channel and
// the channel id routes the row to its partition.
type Chunk struct {
	ID              int64                  `json:"id"`
	ChannelID       int64                  `json:"channel_id"`
	UserID          int64                  `json:"user_id"`
	WriterChannelID *int64                 `json:"writer_channel_id,omitempty"`
	Content         string                 `json:"content"`
	Embeddings      EmbeddingPair          `json:"embeddings"`
	Provider        Provider               `json:"provider"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	Ctime           int64                  `json:"ctime"`
}
