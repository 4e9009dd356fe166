package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stackmesh/chunkstore/internal/model"
	appErr "github.com/stackmesh/chunkstore/internal/pkg/errors"
)

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newTestEmbedder(t *testing.T, baseURL string) IEmbedder {
	t.Helper()
	embedder, err := NewEmbedder("openai", "text-embedding-3-small", 5*time.Second, map[string]interface{}{
		"api_key":  "test-key",
		"base_url": baseURL,
	})
	require.NoError(t, err)
	return embedder
}

func writeEmbeddingResponse(t *testing.T, w http.ResponseWriter, dims int) {
	t.Helper()
	values := make([]float32, dims)
	for i := range values {
		values[i] = 0.01
	}
	err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": []map[string]interface{}{{"embedding": values}},
	})
	require.NoError(t, err)
}

func TestOpenAIEmbedSuccess(t *testing.T) {
	var gotAuth string
	var gotReq openAIEmbedRequest
	srv := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		require.Equal(t, "/embeddings", r.URL.Path)
		writeEmbeddingResponse(t, w, model.DimensionsOpenAI)
	})

	embedder := newTestEmbedder(t, srv.URL)
	values, err := embedder.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Len(t, values, model.DimensionsOpenAI)
	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, "text-embedding-3-small", gotReq.Model)
	require.Equal(t, "hello world", gotReq.Input)
}

func TestOpenAIEmbedWithoutAPIKey(t *testing.T) {
	var calls int
	srv := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})
	embedder, err := NewEmbedder("openai", "text-embedding-3-small", 5*time.Second, map[string]interface{}{
		"base_url": srv.URL,
	})
	require.NoError(t, err)

	_, err = embedder.Embed(context.Background(), "hello")
	require.ErrorIs(t, err, appErr.ErrProviderNotConfigured)
	require.Zero(t, calls)
}

func TestOpenAIEmbedRetriesTransientFailure(t *testing.T) {
	var calls int
	srv := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":"rate limited"}`)
			return
		}
		writeEmbeddingResponse(t, w, model.DimensionsOpenAI)
	})

	embedder := newTestEmbedder(t, srv.URL)
	values, err := embedder.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, values, model.DimensionsOpenAI)
	require.Equal(t, 2, calls)
}

func TestOpenAIEmbedGivesUpAfterRetries(t *testing.T) {
	var calls int
	srv := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	embedder := newTestEmbedder(t, srv.URL)
	_, err := embedder.Embed(context.Background(), "hello")
	require.ErrorIs(t, err, appErr.ErrEmbeddingFailed)
	require.Equal(t, 1+maxEmbedRetries, calls)
}

func TestOpenAIEmbedPermanentFailureNotRetried(t *testing.T) {
	var calls int
	srv := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad key"}`)
	})

	embedder := newTestEmbedder(t, srv.URL)
	_, err := embedder.Embed(context.Background(), "hello")
	require.ErrorIs(t, err, appErr.ErrEmbeddingFailed)
	require.Equal(t, 1, calls)
}

func TestOpenAIEmbedRejectsWrongDimensions(t *testing.T) {
	var calls int
	srv := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeEmbeddingResponse(t, w, 8)
	})

	embedder := newTestEmbedder(t, srv.URL)
	_, err := embedder.Embed(context.Background(), "hello")
	require.ErrorIs(t, err, appErr.ErrEmbeddingFailed)
	require.Equal(t, 1, calls)
}

func TestIsOpenAITransient(t *testing.T) {
	require.True(t, isOpenAITransient(&httpStatusError{status: http.StatusTooManyRequests}))
	require.True(t, isOpenAITransient(&httpStatusError{status: http.StatusBadGateway}))
	require.False(t, isOpenAITransient(&httpStatusError{status: http.StatusBadRequest}))
	require.False(t, isOpenAITransient(fmt.Errorf("decode failed")))
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	_, err := NewEmbedder("unknown", "m", time.Second, nil)
	require.Error(t, err)
}
