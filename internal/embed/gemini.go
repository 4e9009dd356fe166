package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/stackmesh/chunkstore/internal/model"
	appErr "github.com/stackmesh/chunkstore/internal/pkg/errors"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

// geminiEmbedder is a drop-in alternative backend for the remote embedding
// space. Output dimensionality is pinned so its vectors land in the same
// 1536-wide column as the default backend.
type geminiEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	timeout    time.Duration
}

func (e *geminiEmbedder) ModelName() string {
	return e.model
}

func (e *geminiEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *geminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.apiKey == "" {
		return nil, appErr.ErrProviderNotConfigured
	}
	return embedWithRetry(ctx, isGeminiTransient, func(ctx context.Context) ([]float32, error) {
		return e.embedOnce(ctx, text)
	})
}

func (e *geminiEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  e.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	dims := int32(e.dimensions)
	resp, err := client.Models.EmbedContent(
		ctx,
		e.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		&genai.EmbedContentConfig{OutputDimensionality: &dims},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding values returned")
	}
	values := resp.Embeddings[0].Values
	if len(values) != e.dimensions {
		return nil, fmt.Errorf("gemini returned %d dimensions, want %d", len(values), e.dimensions)
	}
	return values, nil
}

func isGeminiTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}

func createGeminiEmbedFactory(modelName string, timeout time.Duration, args interface{}) (IEmbedder, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiEmbedder{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      modelName,
		dimensions: model.DimensionsOpenAI,
		timeout:    timeout,
	}, nil
}

func init() {
	Register("gemini", createGeminiEmbedFactory)
}
