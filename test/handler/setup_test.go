package handler_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/stackmesh/chunkstore/internal/handler"
	"github.com/stackmesh/chunkstore/internal/middleware"
	"github.com/stackmesh/chunkstore/internal/model"
	"github.com/stackmesh/chunkstore/internal/repo"
	"github.com/stackmesh/chunkstore/internal/service"
	"github.com/stackmesh/chunkstore/test/testutil"
)

// scriptedEmbedder stands in for the remote provider so handler tests never
// leave the process. Err applies to every call until cleared.
type scriptedEmbedder struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (e *scriptedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([]float32, model.DimensionsOpenAI)
	for i := range out {
		out[i] = 0.01
	}
	return out, nil
}

func (e *scriptedEmbedder) ModelName() string {
	return "scripted"
}

func (e *scriptedEmbedder) Dimensions() int {
	return model.DimensionsOpenAI
}

func setupRouter(t *testing.T) (http.Handler, *scriptedEmbedder, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	testutil.ResetChunks(t, db)

	chunkRepo := repo.NewChunkRepo(db)
	embedder := &scriptedEmbedder{}
	chunkService := service.NewChunkService(chunkRepo, embedder)
	searchService := service.NewSearchService(chunkRepo, embedder)

	deps := handler.RouterDeps{
		Chunks: handler.NewChunkHandler(chunkService),
		Search: handler.NewSearchHandler(searchService),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, embedder, cleanup
}
