package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/services"
)

type GenerationHandler struct {
	log               *logger.Logger
	generationService services.GenerationService
}

func NewGenerationHandler(log *logger.Logger, generationService services.GenerationService) *GenerationHandler {
	return &GenerationHandler{
		log:               log.With("handler", "GenerationHandler"),
		generationService: generationService,
	}
}

type outlineRequest struct {
	services.OutlineRequest
	VariantIndex int `json:"variant_index"`
}

func (h *GenerationHandler) GenerateOutline(c *gin.Context) {
	var req outlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	variant, err := h.generationService.GenerateOutlineVariant(c.Request.Context(), req.OutlineRequest, req.VariantIndex)
	if err != nil {
		RespondDomainError(c, "generate_outline_failed", err)
		return
	}
	RespondOK(c, variant)
}

func (h *GenerationHandler) EnhanceTopic(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.generationService.EnhanceTopic(c.Request.Context(), id); err != nil {
		RespondDomainError(c, "enhance_topic_failed", err)
		return
	}
	RespondOK(c, gin.H{"enhanced": true})
}

func (h *GenerationHandler) GeneratePromo(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	result, err := h.generationService.GeneratePromo(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "generate_promo_failed", err)
		return
	}
	RespondOK(c, result)
}
