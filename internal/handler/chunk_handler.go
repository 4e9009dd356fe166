package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stackmesh/chunkstore/internal/model"
	"github.com/stackmesh/chunkstore/internal/pkg/errcode"
	"github.com/stackmesh/chunkstore/internal/pkg/response"
	"github.com/stackmesh/chunkstore/internal/service"
)

type ChunkHandler struct {
	chunks *service.ChunkService
}

func NewChunkHandler(chunks *service.ChunkService) *ChunkHandler {
	return &ChunkHandler{chunks: chunks}
}

type upsertChunkRequest struct {
	Provider string `json:"provider"`
	service.UpsertInput
}

type bulkUpsertRequest struct {
	Provider string                 `json:"provider"`
	Items    []*service.UpsertInput `json:"items"`
}

// Create is the direct-write path: no server-side generation, at least one
// precomputed embedding required.
func (h *ChunkHandler) Create(c *gin.Context) {
	var req service.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.Invalid, "invalid request")
		return
	}
	chunk, err := h.chunks.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"chunk": chunk})
}

func (h *ChunkHandler) Upsert(c *gin.Context) {
	var req upsertChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.Invalid, "invalid request")
		return
	}
	sel, err := model.ParseSelection(req.Provider)
	if err != nil {
		handleError(c, err)
		return
	}
	chunk, action, err := h.chunks.Upsert(c.Request.Context(), sel, &req.UpsertInput)
	if err != nil {
		handleError(c, err)
		return
	}
	status := http.StatusOK
	if action == service.ActionCreated {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"chunk": chunk, "action": action})
}

// BulkUpsert always answers 200 once the shared provider selection is valid;
// per-item outcomes live in the result slots.
func (h *ChunkHandler) BulkUpsert(c *gin.Context) {
	var req bulkUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.Invalid, "invalid request")
		return
	}
	sel, err := model.ParseSelection(req.Provider)
	if err != nil {
		handleError(c, err)
		return
	}
	result, err := h.chunks.BulkUpsert(c.Request.Context(), sel, req.Items)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
