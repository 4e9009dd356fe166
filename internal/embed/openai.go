package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/stackmesh/chunkstore/internal/model"
	appErr "github.com/stackmesh/chunkstore/internal/pkg/errors"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type openAIEmbedder struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

type openAIEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// httpStatusError carries the response status so the retry layer can tell
// rate limits and server errors apart from permanent request failures.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("openai request failed: status %d: %s", e.status, e.body)
}

func (e *openAIEmbedder) ModelName() string {
	return e.model
}

func (e *openAIEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.apiKey == "" {
		return nil, appErr.ErrProviderNotConfigured
	}
	return embedWithRetry(ctx, isOpenAITransient, func(ctx context.Context) ([]float32, error) {
		return e.embedOnce(ctx, text)
	})
}

func (e *openAIEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	endpoint := strings.TrimRight(e.baseURL, "/") + "/embeddings"
	data, err := json.Marshal(openAIEmbedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &httpStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	var out openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("openai response has no embeddings")
	}
	values := out.Data[0].Embedding
	if len(values) != e.dimensions {
		return nil, fmt.Errorf("openai returned %d dimensions, want %d", len(values), e.dimensions)
	}
	return values, nil
}

// isOpenAITransient treats rate limits, 5xx responses and transport errors
// as retryable; any other HTTP status and malformed results are permanent.
func isOpenAITransient(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status == http.StatusTooManyRequests || statusErr.status >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func createOpenAIEmbedFactory(modelName string, timeout time.Duration, args interface{}) (IEmbedder, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &openAIEmbedder{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		model:      modelName,
		dimensions: model.DimensionsOpenAI,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func init() {
	Register("openai", createOpenAIEmbedFactory)
}
