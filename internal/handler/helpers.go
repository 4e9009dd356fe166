package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stackmesh/chunkstore/internal/pkg/errcode"
	appErr "github.com/stackmesh/chunkstore/internal/pkg/errors"
	"github.com/stackmesh/chunkstore/internal/pkg/response"
)

// handleError maps service errors onto the HTTP surface. Client-class errors
// surface their own message; anything unclassified becomes an opaque 500.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrInvalidProvider):
		response.Error(c, http.StatusBadRequest, errcode.InvalidProvider, err.Error())
	case errors.Is(err, appErr.ErrDimensionMismatch):
		response.Error(c, http.StatusBadRequest, errcode.DimensionMismatch, err.Error())
	case errors.Is(err, appErr.ErrMissingEmbedding):
		response.Error(c, http.StatusBadRequest, errcode.MissingEmbedding, err.Error())
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.Invalid, err.Error())
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, errcode.NotFound, "not found")
	case errors.Is(err, appErr.ErrProviderNotConfigured):
		response.Error(c, http.StatusServiceUnavailable, errcode.ProviderNotConfigured, "embedding provider not configured")
	case errors.Is(err, appErr.ErrEmbeddingFailed):
		response.Error(c, http.StatusBadGateway, errcode.EmbeddingFailed, "embedding generation failed")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.Internal, "internal error")
	}
}
