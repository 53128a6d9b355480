package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for API key management.
type Handler struct {
	manager *Manager
}

// NewHandler creates an auth handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Info handles GET /v1/auth/info
//
// Public endpoint describing how authentication works so that clients
// can discover the scheme without reading docs.
func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authentication": gin.H{
			"scheme":      "Bearer",
			"header":      "Authorization: Bearer sk_...",
			"alternative": "X-API-Key: sk_...",
			"how_to_get":  "Register a wallet profile via POST /v1/profiles to receive an API key.",
		},
		"public_endpoints": []string{
			"GET /health",
			"GET /v1/auth/info",
			"POST /v1/profiles",
			"GET /v1/profiles/:address",
			"GET /v1/campaigns",
			"GET /v1/campaigns/:id",
			"GET /v1/campaigns/:id/risk",
			"GET /v1/campaigns/:id/reports",
			"GET /v1/spam/rules",
		},
		"protected_endpoints": []string{
			"POST /v1/campaigns",
			"POST /v1/reports",
			"POST /v1/comments/gate",
			"GET /v1/auth/keys",
			"POST /v1/auth/keys",
			"DELETE /v1/auth/keys/:keyId",
		},
	})
}

// safeKey is an APIKey with the hash stripped for API responses.
type safeKey struct {
	ID         string     `json:"id"`
	WalletAddr string     `json:"walletAddr"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsed   time.Time  `json:"lastUsed,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	Revoked    bool       `json:"revoked"`
}

func toSafeKey(k *APIKey) safeKey {
	return safeKey{
		ID:         k.ID,
		WalletAddr: k.WalletAddr,
		Name:       k.Name,
		CreatedAt:  k.CreatedAt,
		LastUsed:   k.LastUsed,
		ExpiresAt:  k.ExpiresAt,
		Revoked:    k.Revoked,
	}
}

// ListKeys handles GET /v1/auth/keys
func (h *Handler) ListKeys(c *gin.Context) {
	key, ok := GetAPIKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "API key required.",
		})
		return
	}

	keys, err := h.manager.ListKeys(c.Request.Context(), key.WalletAddr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list keys",
		})
		return
	}

	safe := make([]safeKey, 0, len(keys))
	for _, k := range keys {
		safe = append(safe, toSafeKey(k))
	}

	c.JSON(http.StatusOK, gin.H{
		"keys":  safe,
		"count": len(safe),
	})
}

// CreateKeyRequest is the body for POST /v1/auth/keys.
type CreateKeyRequest struct {
	Name string `json:"name"`
}

// CreateKey handles POST /v1/auth/keys
//
// Issues an additional key for the authenticated wallet. The raw key is
// only returned once; we store its hash.
func (h *Handler) CreateKey(c *gin.Context) {
	key, ok := GetAPIKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "API key required.",
		})
		return
	}

	var req CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Name = ""
	}
	if req.Name == "" {
		req.Name = "Additional key"
	}

	rawKey, newKey, err := h.manager.GenerateKey(c.Request.Context(), key.WalletAddr, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to create key",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key":     rawKey,
		"details": toSafeKey(newKey),
		"warning": "Store this key securely. It will not be shown again.",
	})
}

// RevokeKey handles DELETE /v1/auth/keys/:keyId
func (h *Handler) RevokeKey(c *gin.Context) {
	key, ok := GetAPIKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "API key required.",
		})
		return
	}

	keyID := c.Param("keyId")
	if keyID == key.ID {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "cannot_revoke_current",
			"message": "Cannot revoke the key used for this request. Use a different key.",
		})
		return
	}

	if err := h.manager.RevokeKey(c.Request.Context(), keyID, key.WalletAddr); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Key not found or not owned by this wallet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"revoked": keyID,
	})
}
