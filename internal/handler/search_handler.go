package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stackmesh/chunkstore/internal/model"
	"github.com/stackmesh/chunkstore/internal/pkg/errcode"
	"github.com/stackmesh/chunkstore/internal/pkg/response"
	"github.com/stackmesh/chunkstore/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	Provider  string    `json:"provider"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Limit     int       `json:"limit"`
}

type embedRequest struct {
	Text string `json:"text"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.Invalid, "invalid request")
		return
	}
	provider, err := model.ParseProvider(req.Provider)
	if err != nil {
		handleError(c, err)
		return
	}
	results, err := h.search.Search(c.Request.Context(), &service.SearchInput{
		Provider:  provider,
		Text:      req.Text,
		Embedding: req.Embedding,
		Limit:     req.Limit,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results, "provider": provider})
}

func (h *SearchHandler) Embed(c *gin.Context) {
	var req embedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.Invalid, "invalid request")
		return
	}
	values, err := h.search.EmbedText(c.Request.Context(), req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"embedding":  values,
		"dimensions": len(values),
		"provider":   model.ProviderOpenAI,
	})
}
