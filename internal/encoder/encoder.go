// Package encoder hosts the caller-side local embedding model for the minilm
// space. The server never runs this encoder; clients load it in their own
// process and send the resulting 384-dim vectors with their write requests.
package encoder

import "context"

// Encoder produces local embedding vectors for text.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}
