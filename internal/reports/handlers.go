package reports

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wowzarush/backend/internal/auth"
	"github.com/wowzarush/backend/internal/campaign"
	"github.com/wowzarush/backend/internal/identity"
)

// Handler provides read endpoints for reports. Submission and resolution go
// through the moderation façade, which sequences them with risk recomputes.
type Handler struct {
	service     *Service
	adminSecret string
}

// NewHandler creates a report handler. adminSecret controls whether list
// responses are redacted; it mirrors the RequireAdmin middleware semantics.
func NewHandler(service *Service, adminSecret string) *Handler {
	return &Handler{service: service, adminSecret: adminSecret}
}

// RegisterRoutes sets up public report routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/campaigns/:id/reports", h.ListReports)
	r.GET("/reports/:id", h.GetReport)
}

// isAdmin reports whether the caller would pass RequireAdmin. Used on public
// routes where admins get the unredacted view without a separate endpoint.
func (h *Handler) isAdmin(c *gin.Context) bool {
	if !auth.IsAuthenticated(c) {
		return false
	}
	if h.adminSecret == "" {
		return true
	}
	provided := c.GetHeader("X-Admin-Secret")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.adminSecret)) == 1
}

// ListReports handles GET /v1/campaigns/:id/reports
func (h *Handler) ListReports(c *gin.Context) {
	limit := 0
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	page, err := h.service.List(c.Request.Context(), c.Param("id"), h.isAdmin(c), c.Query("cursor"), limit)
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports":     page.Reports,
		"count":       len(page.Reports),
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
	})
}

// GetReport handles GET /v1/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	report, err := h.service.Get(c.Request.Context(), c.Param("id"), h.isAdmin(c))
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// mapError maps service errors to HTTP responses.
func (h *Handler) mapError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, ErrReportNotFound),
		errors.Is(err, campaign.ErrCampaignNotFound),
		errors.Is(err, identity.ErrProfileNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
		code = "validation_error"
	case errors.Is(err, identity.ErrChainRead):
		status = http.StatusBadGateway
		code = "dependency_failure"
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}
