package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dmoraru/personas/internal/pkg/response"
	"github.com/dmoraru/personas/internal/service"
)

type IngestionHandler struct {
	ingestion *service.IngestionService
}

func NewIngestionHandler(ingestion *service.IngestionService) *IngestionHandler {
	return &IngestionHandler{ingestion: ingestion}
}

func (h *IngestionHandler) Trigger(c *gin.Context) {
	jobs, err := h.ingestion.Trigger(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"batch_id": jobs[0].BatchID, "jobs": jobs})
}

func (h *IngestionHandler) Status(c *gin.Context) {
	status, err := h.ingestion.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, status)
}

func (h *IngestionHandler) Retry(c *gin.Context) {
	jobs, err := h.ingestion.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"jobs": jobs})
}

func (h *IngestionHandler) ClearHistory(c *gin.Context) {
	deleted, err := h.ingestion.ClearHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted})
}
