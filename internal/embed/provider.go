package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	appErr "github.com/stackmesh/chunkstore/internal/pkg/errors"
)

// IEmbedder generates embeddings in a fixed-dimensionality space. All
// server-side implementations are remote; the local minilm space is populated
// by callers and has no embedder here.
type IEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
	Dimensions() int
}

type Factory func(model string, timeout time.Duration, args interface{}) (IEmbedder, error)

var registry = map[string]Factory{}

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewEmbedder(name string, model string, timeout time.Duration, args interface{}) (IEmbedder, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("embedding.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embedding provider: %s", name)
	}
	return factory(model, timeout, args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode embedding provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode embedding provider config: %w", err)
	}
	return nil
}

const maxEmbedRetries = 2

// embedWithRetry runs call with exponential backoff starting at 1s, retrying
// transient failures up to maxEmbedRetries times. Permanent failures and
// exhausted retries surface wrapped in ErrEmbeddingFailed.
func embedWithRetry(ctx context.Context, transient func(error) bool, call func(ctx context.Context) ([]float32, error)) ([]float32, error) {
	var out []float32
	b := retry.NewExponential(1 * time.Second)
	err := retry.Do(ctx, retry.WithMaxRetries(maxEmbedRetries, b), func(ctx context.Context) error {
		values, err := call(ctx)
		if err != nil {
			if transient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = values
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingFailed, err)
	}
	return out, nil
}
