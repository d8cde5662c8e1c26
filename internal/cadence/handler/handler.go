package handler

import (
	"net/http"
	"time"

	"outreach_backend/internal/cadence/service"
	"outreach_backend/internal/cadence/transport"
	contactsvc "outreach_backend/internal/contacts/service"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for follow-up cadence.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new cadence handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers cadence routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/due", h.ListDue)
	rg.POST("/contacts/:id/contacted", h.RecordContact)
	rg.PUT("/contacts/:id/override", h.SetOverride)
	rg.PUT("/contacts/:id/opt-out", h.SetOptOut)
	rg.POST("/contacts/:id/recalculate", h.Recalculate)
}

func (h *Handler) ListDue(c *gin.Context) {
	var req transport.DueRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListDue(c.Request.Context(), tenantID, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) RecordContact(c *gin.Context) {
	id, tenantID, ok := h.contactTarget(c)
	if !ok {
		return
	}

	var req transport.RecordContactRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	var at time.Time
	if req.At != nil {
		at = *req.At
	}

	contact, err := h.svc.RecordContact(c.Request.Context(), tenantID, id, at)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, contactsvc.ToResponse(contact, time.Now()))
}

func (h *Handler) SetOverride(c *gin.Context) {
	id, tenantID, ok := h.contactTarget(c)
	if !ok {
		return
	}

	var req transport.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	contact, err := h.svc.SetOverride(c.Request.Context(), tenantID, id, req.At)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, contactsvc.ToResponse(contact, time.Now()))
}

func (h *Handler) SetOptOut(c *gin.Context) {
	id, tenantID, ok := h.contactTarget(c)
	if !ok {
		return
	}

	var req transport.OptOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.svc.SetOptOut(c.Request.Context(), tenantID, id, *req.DoNotContact)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, contactsvc.ToResponse(contact, time.Now()))
}

func (h *Handler) Recalculate(c *gin.Context) {
	id, tenantID, ok := h.contactTarget(c)
	if !ok {
		return
	}

	contact, err := h.svc.Recalculate(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, contactsvc.ToResponse(contact, time.Now()))
}

func (h *Handler) contactTarget(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return uuid.UUID{}, uuid.UUID{}, false
	}
	return id, tenantID, true
}
