package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/services"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type IncentiveHandler struct {
	log              *logger.Logger
	incentiveService services.IncentiveService
}

func NewIncentiveHandler(log *logger.Logger, incentiveService services.IncentiveService) *IncentiveHandler {
	return &IncentiveHandler{
		log:              log.With("handler", "IncentiveHandler"),
		incentiveService: incentiveService,
	}
}

type createIncentiveRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Rules       string     `json:"rules"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func (h *IncentiveHandler) Create(c *gin.Context) {
	var req createIncentiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	incentive := &types.Incentive{
		Title:       req.Title,
		Description: req.Description,
		Rules:       req.Rules,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	created, err := h.incentiveService.Create(c.Request.Context(), incentive)
	if err != nil {
		RespondDomainError(c, "create_incentive_failed", err)
		return
	}
	RespondOK(c, gin.H{"incentive": created})
}

func (h *IncentiveHandler) List(c *gin.Context) {
	incentives, err := h.incentiveService.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, "list_incentives_failed", err)
		return
	}
	RespondOK(c, gin.H{"incentives": incentives})
}

func (h *IncentiveHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	incentive, err := h.incentiveService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "load_incentive_failed", err)
		return
	}
	RespondOK(c, gin.H{"incentive": incentive})
}

func (h *IncentiveHandler) Patch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var patch services.IncentivePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	incentive, err := h.incentiveService.Update(c.Request.Context(), id, patch)
	if err != nil {
		RespondDomainError(c, "update_incentive_failed", err)
		return
	}
	RespondOK(c, gin.H{"incentive": incentive})
}

func (h *IncentiveHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.incentiveService.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, "delete_incentive_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *IncentiveHandler) Publish(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	incentive, err := h.incentiveService.Publish(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "publish_incentive_failed", err)
		return
	}
	RespondOK(c, gin.H{"incentive": incentive})
}

func (h *IncentiveHandler) Unpublish(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	incentive, err := h.incentiveService.Unpublish(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "unpublish_incentive_failed", err)
		return
	}
	RespondOK(c, gin.H{"incentive": incentive})
}

func (h *IncentiveHandler) Clone(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	incentive, err := h.incentiveService.Clone(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "clone_incentive_failed", err)
		return
	}
	RespondOK(c, gin.H{"incentive": incentive})
}

func (h *IncentiveHandler) PublicActive(c *gin.Context) {
	incentives, err := h.incentiveService.GetActive(c.Request.Context())
	if err != nil {
		RespondDomainError(c, "list_active_incentives_failed", err)
		return
	}
	RespondOK(c, gin.H{"incentives": incentives})
}
