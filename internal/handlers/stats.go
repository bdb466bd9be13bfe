package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/trainstudio-backend/internal/services"
)

type StatsHandler struct {
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) EntityCounts(c *gin.Context) {
	counts, err := h.statsService.EntityCounts(c.Request.Context())
	if err != nil {
		RespondDomainError(c, "load_stats_failed", err)
		return
	}
	RespondOK(c, counts)
}
