package risk

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wowzarush/backend/internal/campaign"
	"github.com/wowzarush/backend/internal/identity"
)

// Handler provides HTTP endpoints for risk scores.
type Handler struct {
	scorer *Scorer
}

// NewHandler creates a risk handler.
func NewHandler(scorer *Scorer) *Handler {
	return &Handler{scorer: scorer}
}

// RegisterRoutes sets up public risk routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/campaigns/:id/risk", h.GetRiskScore)
}

// GetRiskScore handles GET /v1/campaigns/:id/risk
func (h *Handler) GetRiskScore(c *gin.Context) {
	score, err := h.scorer.Score(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"risk": score})
}

// mapError maps scorer errors to HTTP responses.
func (h *Handler) mapError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, campaign.ErrCampaignNotFound), errors.Is(err, identity.ErrProfileNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, identity.ErrChainRead):
		status = http.StatusBadGateway
		code = "dependency_failure"
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}
