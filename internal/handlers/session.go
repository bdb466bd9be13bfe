package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/services"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type SessionHandler struct {
	log            *logger.Logger
	sessionService services.SessionService
	qrService      services.QRService
}

func NewSessionHandler(log *logger.Logger, sessionService services.SessionService, qrService services.QRService) *SessionHandler {
	return &SessionHandler{
		log:            log.With("handler", "SessionHandler"),
		sessionService: sessionService,
		qrService:      qrService,
	}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

type createSessionRequest struct {
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	Rules          string     `json:"rules"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	ReadinessScore int        `json:"readiness_score"`
	TopicID        *uuid.UUID `json:"topic_id"`
	AudienceID     *uuid.UUID `json:"audience_id"`
	ToneID         *uuid.UUID `json:"tone_id"`
	CategoryID     *uuid.UUID `json:"category_id"`
	TrainerID      *uuid.UUID `json:"trainer_id"`
	LocationID     *uuid.UUID `json:"location_id"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session := &types.Session{
		Title:          req.Title,
		Description:    req.Description,
		Rules:          req.Rules,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ReadinessScore: req.ReadinessScore,
		TopicID:        req.TopicID,
		AudienceID:     req.AudienceID,
		ToneID:         req.ToneID,
		CategoryID:     req.CategoryID,
		TrainerID:      req.TrainerID,
		LocationID:     req.LocationID,
	}
	created, err := h.sessionService.Create(c.Request.Context(), session)
	if err != nil {
		RespondDomainError(c, "create_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": created})
}

func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessionService.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, "list_sessions_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	session, err := h.sessionService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "load_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (h *SessionHandler) Patch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var patch services.SessionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := h.sessionService.Update(c.Request.Context(), id, patch)
	if err != nil {
		RespondDomainError(c, "update_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.sessionService.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, "delete_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *SessionHandler) Publish(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	session, err := h.sessionService.Publish(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "publish_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (h *SessionHandler) Unpublish(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	session, err := h.sessionService.Unpublish(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "unpublish_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (h *SessionHandler) Clone(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	session, err := h.sessionService.Clone(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "clone_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (h *SessionHandler) PublicActive(c *gin.Context) {
	sessions, err := h.sessionService.GetActive(c.Request.Context())
	if err != nil {
		RespondDomainError(c, "list_active_sessions_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Export(c *gin.Context) {
	records, err := h.sessionService.Export(c.Request.Context())
	if err != nil {
		RespondDomainError(c, "export_sessions_failed", err)
		return
	}
	RespondOK(c, records)
}

func (h *SessionHandler) Import(c *gin.Context) {
	var records []services.SessionImportRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.sessionService.Import(c.Request.Context(), records)
	if err != nil {
		RespondDomainError(c, "import_sessions_failed", err)
		return
	}
	RespondOK(c, result)
}

// QR returns a QR image link for the session's public page. Best effort:
// provider failure is a failed result, not an HTTP error.
func (h *SessionHandler) QR(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	session, err := h.sessionService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "load_session_failed", err)
		return
	}
	target := c.Query("target")
	if target == "" {
		target = "https://trainstudio.app/sessions/" + session.ID.String()
	}
	result := h.qrService.Generate(c.Request.Context(), target, 200)
	RespondOK(c, result)
}
