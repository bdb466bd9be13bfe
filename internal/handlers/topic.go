package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/services"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type TopicHandler struct {
	log          *logger.Logger
	topicService services.TopicService
}

func NewTopicHandler(log *logger.Logger, topicService services.TopicService) *TopicHandler {
	return &TopicHandler{
		log:          log.With("handler", "TopicHandler"),
		topicService: topicService,
	}
}

type createTopicRequest struct {
	Name             string     `json:"name" binding:"required"`
	Description      string     `json:"description"`
	LearningOutcomes string     `json:"learning_outcomes"`
	TrainerNotes     string     `json:"trainer_notes"`
	MaterialsNeeded  string     `json:"materials_needed"`
	DeliveryGuidance string     `json:"delivery_guidance"`
	CategoryID       *uuid.UUID `json:"category_id"`
}

func (h *TopicHandler) Create(c *gin.Context) {
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	topic := &types.Topic{
		Name:             req.Name,
		Description:      req.Description,
		LearningOutcomes: req.LearningOutcomes,
		TrainerNotes:     req.TrainerNotes,
		MaterialsNeeded:  req.MaterialsNeeded,
		DeliveryGuidance: req.DeliveryGuidance,
		Active:           true,
		CategoryID:       req.CategoryID,
	}
	created, err := h.topicService.Create(c.Request.Context(), topic)
	if err != nil {
		RespondDomainError(c, "create_topic_failed", err)
		return
	}
	RespondOK(c, gin.H{"topic": created})
}

func (h *TopicHandler) List(c *gin.Context) {
	topics, err := h.topicService.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, "list_topics_failed", err)
		return
	}
	RespondOK(c, gin.H{"topics": topics})
}

func (h *TopicHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	topic, err := h.topicService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "load_topic_failed", err)
		return
	}
	RespondOK(c, gin.H{"topic": topic})
}

func (h *TopicHandler) Patch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var patch services.TopicPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	topic, err := h.topicService.Update(c.Request.Context(), id, patch)
	if err != nil {
		RespondDomainError(c, "update_topic_failed", err)
		return
	}
	RespondOK(c, gin.H{"topic": topic})
}

func (h *TopicHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.topicService.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, "delete_topic_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *TopicHandler) Export(c *gin.Context) {
	records, err := h.topicService.Export(c.Request.Context())
	if err != nil {
		RespondDomainError(c, "export_topics_failed", err)
		return
	}
	RespondOK(c, records)
}

func (h *TopicHandler) Import(c *gin.Context) {
	var records []services.TopicImportRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.topicService.Import(c.Request.Context(), records)
	if err != nil {
		RespondDomainError(c, "import_topics_failed", err)
		return
	}
	RespondOK(c, result)
}
