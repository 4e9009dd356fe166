package errcode

const (
	Invalid               = "invalid"
	InvalidProvider       = "invalid_provider"
	DimensionMismatch     = "dimension_mismatch"
	MissingEmbedding      = "missing_embedding"
	NotFound              = "not_found"
	ProviderNotConfigured = "provider_not_configured"
	EmbeddingFailed       = "embedding_failed"
	TooMany               = "too_many_requests"
	Internal              = "internal"
)
