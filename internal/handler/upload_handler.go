package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/pkg/errcode"
	"github.com/dmoraru/personas/internal/pkg/response"
	"github.com/dmoraru/personas/internal/service"
)

type UploadHandler struct {
	uploads       *service.UploadService
	maxUploadSize int64
}

func NewUploadHandler(uploads *service.UploadService, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{uploads: uploads, maxUploadSize: maxUploadSize}
}

func (h *UploadHandler) Upload(c *gin.Context) {
	ctype, ok := model.ParseCollectionType(c.Param("type"))
	if !ok {
		response.Error(c, errcode.ErrInvalid, fmt.Sprintf("unknown collection type %q", c.Param("type")))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "multipart field 'file' is required")
		return
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		response.Error(c, errcode.ErrInvalid,
			fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUploadSize))
		return
	}
	f, err := header.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "open uploaded file failed")
		return
	}
	defer f.Close()
	ds, err := h.uploads.Upload(c.Request.Context(), c.Param("id"), ctype, header.Filename, f, header.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ds)
}

func (h *UploadHandler) List(c *gin.Context) {
	sources, err := h.uploads.List(c.Request.Context(), c.Param("id"), c.Query("collection_type"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"files": sources})
}
