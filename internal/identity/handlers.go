package identity

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for profile operations.
type Handler struct {
	service *Service
}

// NewHandler creates a profile handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up public profile routes. Profile creation is wired
// separately by the server so registration can also issue an API key.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profiles/:address", h.GetProfile)
	r.GET("/profiles/:address/balance", h.GetBalance)
}

// RegisterAdminRoutes sets up admin-only profile routes.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.PUT("/profiles/:address/verification", h.SetVerification)
}

// GetProfile handles GET /v1/profiles/:address
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.service.Get(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetBalance handles GET /v1/profiles/:address/balance
func (h *Handler) GetBalance(c *gin.Context) {
	balance, err := h.service.Balance(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": c.Param("address"),
		"balance": balance,
	})
}

// SetVerification handles PUT /v1/admin/profiles/:address/verification
func (h *Handler) SetVerification(c *gin.Context) {
	var req struct {
		Level int `json:"level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	profile, err := h.service.SetVerificationLevel(c.Request.Context(), c.Param("address"), req.Level)
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// mapError maps service errors to HTTP responses.
func (h *Handler) mapError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, ErrProfileNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, ErrProfileExists):
		status = http.StatusConflict
		code = "already_registered"
	case errors.Is(err, ErrInvalidLevel):
		status = http.StatusBadRequest
		code = "validation_error"
	case errors.Is(err, ErrChainRead):
		status = http.StatusBadGateway
		code = "dependency_failure"
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}
