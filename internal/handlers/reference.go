package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/trainstudio-backend/internal/services"
)

// ReferenceHandler serves the lookup entities (category, audience, tone,
// trainer, location) with one CRUD surface. The merge func copies patch
// fields onto the loaded record.
type ReferenceHandler[T any] struct {
	service  services.ReferenceService[T]
	plural   string
	singular string
	merge    func(dst *T, patch *T)
}

func NewReferenceHandler[T any](service services.ReferenceService[T], singular, plural string, merge func(dst *T, patch *T)) *ReferenceHandler[T] {
	return &ReferenceHandler[T]{
		service:  service,
		singular: singular,
		plural:   plural,
		merge:    merge,
	}
}

func (h *ReferenceHandler[T]) Create(c *gin.Context) {
	var record T
	if err := c.ShouldBindJSON(&record); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := h.service.Create(c.Request.Context(), &record)
	if err != nil {
		RespondDomainError(c, "create_"+h.singular+"_failed", err)
		return
	}
	RespondOK(c, gin.H{h.singular: created})
}

func (h *ReferenceHandler[T]) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, "list_"+h.plural+"_failed", err)
		return
	}
	RespondOK(c, gin.H{h.plural: records})
}

func (h *ReferenceHandler[T]) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	record, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "load_"+h.singular+"_failed", err)
		return
	}
	RespondOK(c, gin.H{h.singular: record})
}

func (h *ReferenceHandler[T]) Patch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var patch T
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	record, err := h.service.Update(c.Request.Context(), id, func(current *T) error {
		h.merge(current, &patch)
		return nil
	})
	if err != nil {
		RespondDomainError(c, "update_"+h.singular+"_failed", err)
		return
	}
	RespondOK(c, gin.H{h.singular: record})
}

func (h *ReferenceHandler[T]) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, "delete_"+h.singular+"_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
