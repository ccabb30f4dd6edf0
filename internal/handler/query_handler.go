package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dmoraru/personas/internal/pkg/errcode"
	"github.com/dmoraru/personas/internal/pkg/response"
	"github.com/dmoraru/personas/internal/service"
)

type QueryHandler struct {
	queries *service.QueryService
}

func NewQueryHandler(queries *service.QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

type askRequest struct {
	Persona string `json:"persona"`
	Query   string `json:"query"`
}

func (h *QueryHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.queries.Ask(c.Request.Context(), req.Persona, req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}
