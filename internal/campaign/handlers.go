package campaign

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wowzarush/backend/internal/identity"
)

// Handler provides HTTP endpoints for campaign operations.
type Handler struct {
	service *Service
}

// NewHandler creates a campaign handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up public (read-only) campaign routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/campaigns", h.ListCampaigns)
	r.GET("/campaigns/:id", h.GetCampaign)
	r.GET("/creators/:address/campaigns", h.ListByCreator)
}

// RegisterProtectedRoutes sets up auth-required campaign routes.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/campaigns", h.RegisterCampaign)
}

// RegisterCampaign handles POST /v1/campaigns
func (h *Handler) RegisterCampaign(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	campaign, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"campaign": campaign})
}

// GetCampaign handles GET /v1/campaigns/:id
func (h *Handler) GetCampaign(c *gin.Context) {
	campaign, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

// ListCampaigns handles GET /v1/campaigns
func (h *Handler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.service.List(c.Request.Context(), parseLimit(c, 50, 200))
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

// ListByCreator handles GET /v1/creators/:address/campaigns
func (h *Handler) ListByCreator(c *gin.Context) {
	campaigns, err := h.service.ListByCreator(c.Request.Context(), c.Param("address"), parseLimit(c, 50, 200))
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

func parseLimit(c *gin.Context, def, max int) int {
	limit := def
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > max {
				limit = max
			}
		}
	}
	return limit
}

// mapError maps service errors to HTTP responses.
func (h *Handler) mapError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, ErrCampaignNotFound), errors.Is(err, identity.ErrProfileNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
		code = "validation_error"
	case errors.Is(err, ErrRateLimited):
		status = http.StatusTooManyRequests
		code = "rate_limit_exceeded"
	case errors.Is(err, ErrCampaignExists):
		status = http.StatusConflict
		code = "already_exists"
	case errors.Is(err, identity.ErrChainRead):
		status = http.StatusBadGateway
		code = "dependency_failure"
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}
