package handler

import (
	"errors"
	"io"
	"net/http"

	"concierge/internal/model"
	"concierge/internal/service"

	"github.com/gin-gonic/gin"
)

// EmbeddingHandler exposes the catalog's feature vectors for similarity search
type EmbeddingHandler struct {
	listings *service.ListingService
}

// NewEmbeddingHandler creates a new embedding handler
func NewEmbeddingHandler(listings *service.ListingService) *EmbeddingHandler {
	return &EmbeddingHandler{listings: listings}
}

// BatchUpdate handles POST /api/v1/embeddings/batch
func (h *EmbeddingHandler) BatchUpdate(c *gin.Context) {
	var req model.EmbeddingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if len(req.Embeddings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No embeddings provided"})
		return
	}

	success, errs, err := h.listings.UpdateEmbeddings(c.Request.Context(), req.Embeddings)
	respondBatch(c, len(req.Embeddings), success, errs, err)
}

// Rebuild handles POST /api/v1/embeddings/rebuild
func (h *EmbeddingHandler) Rebuild(c *gin.Context) {
	var req model.EmbeddingRebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	success, errs, err := h.listings.RebuildEmbeddings(c.Request.Context(), req.PropertyIDs)
	respondBatch(c, success+len(errs), success, errs, err)
}

func respondBatch(c *gin.Context, total, success int, errs []string, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusPartialContent
	}
	c.JSON(status, model.EmbeddingBatchResponse{
		Success: success,
		Failed:  total - success,
		Errors:  errs,
	})
}
