package spamguard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wowzarush/backend/internal/auth"
	"github.com/wowzarush/backend/internal/identity"
)

// Handler provides HTTP endpoints for spam prevention.
type Handler struct {
	guard *Guard
}

// NewHandler creates a spam guard handler.
func NewHandler(guard *Guard) *Handler {
	return &Handler{guard: guard}
}

// RegisterRoutes sets up public spam guard routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/spam/rules", h.GetRules)
}

// RegisterProtectedRoutes sets up auth-required routes.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/comments/gate", h.GateComment)
}

// RegisterAdminRoutes sets up admin-only routes.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.PUT("/spam/rules", h.UpdateRules)
}

// GetRules handles GET /v1/spam/rules
func (h *Handler) GetRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.guard.Rules()})
}

// UpdateRules handles PUT /v1/admin/spam/rules
func (h *Handler) UpdateRules(c *gin.Context) {
	var patch RulesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	rules, err := h.guard.UpdateRules(patch)
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// GateComment handles POST /v1/comments/gate
//
// The comment feature itself lives in the platform frontend service; it asks
// this endpoint whether the authenticated wallet may post, and the successful
// check is recorded against the wallet's hourly window.
func (h *Handler) GateComment(c *gin.Context) {
	actor := auth.GetAuthenticatedWallet(c)

	allowed, err := h.guard.CanPerformAction(c.Request.Context(), actor, ActionComment)
	if err != nil {
		h.mapError(c, err)
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "rate_limit_exceeded",
			"message": "Action not allowed right now. Try again later.",
		})
		return
	}

	h.guard.RecordAction(actor, ActionComment)
	c.JSON(http.StatusOK, gin.H{"allowed": true})
}

// mapError maps guard errors to HTTP responses.
func (h *Handler) mapError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, identity.ErrProfileNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, ErrInvalidRules), errors.Is(err, ErrUnknownAction):
		status = http.StatusBadRequest
		code = "validation_error"
	case errors.Is(err, identity.ErrChainRead):
		status = http.StatusBadGateway
		code = "dependency_failure"
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}
