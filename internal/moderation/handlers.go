package moderation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wowzarush/backend/internal/auth"
	"github.com/wowzarush/backend/internal/campaign"
	"github.com/wowzarush/backend/internal/identity"
	"github.com/wowzarush/backend/internal/reports"
	"github.com/wowzarush/backend/internal/spamguard"
)

// Handler provides the moderation façade's HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a moderation handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterProtectedRoutes sets up auth-required moderation routes.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/reports", h.SubmitReport)
}

// RegisterAdminRoutes sets up admin-only moderation routes.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/reports/:id/resolve", h.ResolveReport)
	r.POST("/campaigns/:id/flag", h.FlagCampaign)
	r.POST("/campaigns/:id/unflag", h.UnflagCampaign)
	r.GET("/overview", h.Overview)
}

// SubmitReport handles POST /v1/reports
func (h *Handler) SubmitReport(c *gin.Context) {
	var req reports.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	// The authenticated wallet is the reporter; the body cannot spoof it.
	if addr := auth.GetAuthenticatedWallet(c); addr != "" {
		req.ReporterAddress = addr
	}

	report, score, err := h.service.SubmitReport(c.Request.Context(), req)
	if err != nil {
		h.mapError(c, err)
		return
	}

	resp := gin.H{"report": report}
	if score != nil {
		resp["risk"] = score
	} else {
		// The report is durably written but the recompute failed; the
		// score will refresh on the next read.
		resp["warning"] = "risk score refresh is pending; fetch the campaign risk endpoint for the latest value"
	}
	c.JSON(http.StatusCreated, resp)
}

// ResolveReport handles POST /v1/admin/reports/:id/resolve
func (h *Handler) ResolveReport(c *gin.Context) {
	var req struct {
		Resolution string `json:"resolution"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Resolution is required",
		})
		return
	}

	report, err := h.service.ResolveReport(c.Request.Context(), c.Param("id"), req.Resolution)
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// FlagCampaign handles POST /v1/admin/campaigns/:id/flag
func (h *Handler) FlagCampaign(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	// Reason is optional on flag; an empty body is fine.
	_ = c.ShouldBindJSON(&req)

	score, err := h.service.FlagCampaign(c.Request.Context(), c.Param("id"), auth.GetAuthenticatedWallet(c), req.Reason)
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"risk": score})
}

// UnflagCampaign handles POST /v1/admin/campaigns/:id/unflag
func (h *Handler) UnflagCampaign(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Reason is required",
		})
		return
	}

	score, err := h.service.UnflagCampaign(c.Request.Context(), c.Param("id"), auth.GetAuthenticatedWallet(c), req.Reason)
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"risk": score})
}

// Overview handles GET /v1/admin/overview
func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.service.BuildOverview(c.Request.Context())
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"overview": overview})
}

// mapError maps façade errors to HTTP responses.
func (h *Handler) mapError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, campaign.ErrCampaignNotFound),
		errors.Is(err, reports.ErrReportNotFound),
		errors.Is(err, identity.ErrProfileNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, ErrValidation),
		errors.Is(err, reports.ErrValidation),
		errors.Is(err, spamguard.ErrInvalidRules):
		status = http.StatusBadRequest
		code = "validation_error"
	case errors.Is(err, reports.ErrRateLimited):
		status = http.StatusTooManyRequests
		code = "rate_limit_exceeded"
	case errors.Is(err, reports.ErrAlreadyResolved):
		status = http.StatusConflict
		code = "already_resolved"
	case errors.Is(err, identity.ErrChainRead):
		status = http.StatusBadGateway
		code = "dependency_failure"
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		code = "timeout"
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}
