package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testWallet = "0x1111111111111111111111111111111111111111"

func TestGenerateAndValidateKey(t *testing.T) {
	m := NewManager(NewMemoryStore())

	rawKey, key, err := m.GenerateKey(context.Background(), testWallet, "test key")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(rawKey, "sk_") {
		t.Errorf("raw key should have sk_ prefix, got %s", rawKey)
	}
	if !strings.HasPrefix(key.ID, "ak_") {
		t.Errorf("key ID should have ak_ prefix, got %s", key.ID)
	}
	if key.WalletAddr != testWallet {
		t.Errorf("wallet mismatch: %s", key.WalletAddr)
	}

	validated, err := m.ValidateKey(context.Background(), rawKey)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.ID != key.ID {
		t.Errorf("validated wrong key: %s != %s", validated.ID, key.ID)
	}

	// Bearer prefix is stripped
	if _, err := m.ValidateKey(context.Background(), "Bearer "+rawKey); err != nil {
		t.Errorf("bearer-prefixed key should validate: %v", err)
	}
}

func TestValidateKeyRejects(t *testing.T) {
	m := NewManager(NewMemoryStore())

	if _, err := m.ValidateKey(context.Background(), ""); err != ErrNoAPIKey {
		t.Errorf("empty key: expected ErrNoAPIKey, got %v", err)
	}
	if _, err := m.ValidateKey(context.Background(), "not_a_key"); err != ErrInvalidAPIKey {
		t.Errorf("malformed key: expected ErrInvalidAPIKey, got %v", err)
	}
	if _, err := m.ValidateKey(context.Background(), "sk_deadbeef"); err != ErrInvalidAPIKey {
		t.Errorf("unknown key: expected ErrInvalidAPIKey, got %v", err)
	}
}

func TestRevokedKeyRejected(t *testing.T) {
	m := NewManager(NewMemoryStore())

	rawKey, key, err := m.GenerateKey(context.Background(), testWallet, "to revoke")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if err := m.RevokeKey(context.Background(), key.ID, testWallet); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := m.ValidateKey(context.Background(), rawKey); err != ErrInvalidAPIKey {
		t.Errorf("revoked key should be rejected, got %v", err)
	}
}

func TestExpiredKeyRejected(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store)

	rawKey, key, err := m.GenerateKey(context.Background(), testWallet, "expiring")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	past := time.Now().Add(-time.Hour)
	key.ExpiresAt = &past
	if err := store.Update(context.Background(), key); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := m.ValidateKey(context.Background(), rawKey); err != ErrInvalidAPIKey {
		t.Errorf("expired key should be rejected, got %v", err)
	}
}

func setupAuthedRouter(t *testing.T, adminSecret string) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := NewManager(NewMemoryStore())
	rawKey, _, err := m.GenerateKey(context.Background(), testWallet, "test")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/protected", RequireAuth(m), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"wallet": GetAuthenticatedWallet(c)})
	})
	r.POST("/admin", RequireAdmin(adminSecret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, rawKey
}

func TestRequireAuth(t *testing.T) {
	r, rawKey := setupAuthedRouter(t, "")

	// No key
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}

	// Valid key
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", w.Code)
	}
}

func TestRequireAdminDemoMode(t *testing.T) {
	r, rawKey := setupAuthedRouter(t, "")

	// Demo mode: any authenticated caller passes
	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 in demo mode, got %d", w.Code)
	}

	// Unauthenticated still rejected
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}
}

func TestRequireAdminWithSecret(t *testing.T) {
	r, rawKey := setupAuthedRouter(t, "topsecret")

	// Missing secret
	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 without secret, got %d", w.Code)
	}

	// Wrong secret
	req = httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	req.Header.Set("X-Admin-Secret", "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 with wrong secret, got %d", w.Code)
	}

	// Correct secret
	req = httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	req.Header.Set("X-Admin-Secret", "topsecret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with correct secret, got %d", w.Code)
	}
}
