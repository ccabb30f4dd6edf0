package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/pkg/errcode"
	"github.com/dmoraru/personas/internal/pkg/response"
	"github.com/dmoraru/personas/internal/service"
)

type PersonaHandler struct {
	personas *service.PersonaService
}

func NewPersonaHandler(personas *service.PersonaService) *PersonaHandler {
	return &PersonaHandler{personas: personas}
}

func (h *PersonaHandler) Create(c *gin.Context) {
	var req service.CreatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	persona, err := h.personas.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, persona)
}

func (h *PersonaHandler) List(c *gin.Context) {
	status := c.DefaultQuery("status", string(model.PersonaStatusActive))
	if status == "all" {
		status = ""
	}
	personas, err := h.personas.List(c.Request.Context(), status)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"personas": personas})
}

func (h *PersonaHandler) Get(c *gin.Context) {
	persona, err := h.personas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, persona)
}

type updatePersonaRequest struct {
	DisplayName          *string                                          `json:"display_name"`
	BirthYear            *int                                             `json:"birth_year"`
	DeathYear            *int                                             `json:"death_year"`
	Description          *string                                          `json:"description"`
	SpeakingStyle        *string                                          `json:"speaking_style"`
	KeyThemes            *string                                          `json:"key_themes"`
	VoicePrompt          *string                                          `json:"voice_prompt"`
	RepresentativeQuotes []string                                         `json:"representative_quotes"`
	Color                *string                                          `json:"color"`
	Overrides            map[model.CollectionType]model.RetrievalOverride `json:"overrides"`
}

// Update applies a partial edit; absent fields keep their current value.
func (h *PersonaHandler) Update(c *gin.Context) {
	var req updatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	persona, err := h.personas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if req.DisplayName != nil {
		persona.DisplayName = *req.DisplayName
	}
	if req.BirthYear != nil {
		persona.BirthYear = *req.BirthYear
	}
	if req.DeathYear != nil {
		persona.DeathYear = req.DeathYear
	}
	if req.Description != nil {
		persona.Description = *req.Description
	}
	if req.SpeakingStyle != nil {
		persona.SpeakingStyle = *req.SpeakingStyle
	}
	if req.KeyThemes != nil {
		persona.KeyThemes = *req.KeyThemes
	}
	if req.VoicePrompt != nil {
		persona.VoicePrompt = *req.VoicePrompt
	}
	if req.RepresentativeQuotes != nil {
		persona.RepresentativeQuotes = req.RepresentativeQuotes
	}
	if req.Color != nil {
		persona.Color = *req.Color
	}
	if req.Overrides != nil {
		persona.Overrides = req.Overrides
	}
	if err := h.personas.Update(c.Request.Context(), persona); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, persona)
}

func (h *PersonaHandler) Delete(c *gin.Context) {
	if err := h.personas.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
