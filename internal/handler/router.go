package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Chunks *ChunkHandler
	Search *SearchHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/search", deps.Search.Search)
	api.POST("/embed", deps.Search.Embed)

	api.POST("/chunks", deps.Chunks.Create)
	api.POST("/chunks/upsert", deps.Chunks.Upsert)
	api.POST("/chunks/bulk-upsert", deps.Chunks.BulkUpsert)
}
