package handlers

import (
	"errors"
	"net/http"

	appErrors "concierge/errors"
	"concierge/web/services"
	"concierge/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IngestHandler struct {
	uploads *services.UploadService
	logger  *zap.Logger
}

func NewIngestHandler(uploads *services.UploadService, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{uploads: uploads, logger: logger}
}

// Ingest handles POST /ingest: multipart upload of .pdf/.txt files, chunked
// with the requested strategy, persisted, and indexed.
func (h *IngestHandler) Ingest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form upload"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	strategy := services.ChunkingStrategy(c.PostForm("chunking_strategy"))

	var batch types.IngestBatchResponse
	for _, fileHeader := range files {
		result, err := h.uploads.Ingest(c.Request.Context(), fileHeader, strategy)
		if err != nil {
			if errors.Is(err, appErrors.ErrInvalidInput) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			h.logger.Error("Ingestion failed",
				zap.String("filename", fileHeader.Filename),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
			return
		}
		batch.Results = append(batch.Results, result)
	}

	c.JSON(http.StatusOK, batch)
}
