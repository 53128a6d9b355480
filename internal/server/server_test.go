package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/wowzarush/backend/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig returns a minimal config for testing. No RPC URL, so balance
// checks use the in-memory ledger instead of the chain.
func testConfig() *config.Config {
	return &config.Config{
		Port:                 "0",
		Env:                  "development",
		LogLevel:             "error",
		ChainID:              84532,
		TokenContract:        "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		CampaignsPerDay:      3,
		CommentsPerHour:      20,
		ReportsPerDay:        10,
		MinAccountAgeDays:    2,
		MinVerificationLevel: 1,
		MinWalletBalance:     "0.01",
	}
}

// newTestServer creates a server with in-memory stores
func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// Health endpoint tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", resp["status"])
	}
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health/live", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestReadinessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health/ready", nil)
	s.router.ServeHTTP(w, req)

	// Server hasn't called Run() so ready is false
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 (not ready), got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Route registration tests
// ---------------------------------------------------------------------------

func TestModerationRoutesRegistered(t *testing.T) {
	s := newTestServer(t)

	routes := s.router.Routes()
	moderationRoutes := map[string]bool{
		"POST:/v1/reports":                         false,
		"POST:/v1/admin/reports/:id/resolve":       false,
		"POST:/v1/admin/campaigns/:id/flag":        false,
		"POST:/v1/admin/campaigns/:id/unflag":      false,
		"GET:/v1/admin/overview":                   false,
		"PUT:/v1/admin/profiles/:address/verification": false,
	}

	for _, route := range routes {
		key := route.Method + ":" + route.Path
		if _, ok := moderationRoutes[key]; ok {
			moderationRoutes[key] = true
		}
	}

	for route, found := range moderationRoutes {
		if !found {
			t.Errorf("Moderation route %s not registered", route)
		}
	}
}

func TestCoreRoutesRegistered(t *testing.T) {
	s := newTestServer(t)

	routes := s.router.Routes()
	expected := []string{
		"GET:/health",
		"GET:/health/live",
		"GET:/health/ready",
		"GET:/ws",
		"POST:/v1/profiles",
		"GET:/v1/profiles/:address",
		"GET:/v1/campaigns/:id",
		"GET:/v1/campaigns/:id/risk",
		"GET:/v1/campaigns/:id/reports",
		"GET:/v1/spam/rules",
	}

	routeSet := make(map[string]bool)
	for _, route := range routes {
		routeSet[route.Method+":"+route.Path] = true
	}

	for _, e := range expected {
		if !routeSet[e] {
			t.Errorf("Core route %s not registered", e)
		}
	}
}

// ---------------------------------------------------------------------------
// Profile registration test
// ---------------------------------------------------------------------------

func TestProfileRegistration(t *testing.T) {
	s := newTestServer(t)

	body := `{"address":"0xaaaa000000000000000000000000000000000001"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/profiles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp["apiKey"] == nil || resp["apiKey"] == "" {
		t.Error("Expected apiKey in registration response")
	}
	if resp["profile"] == nil {
		t.Error("Expected profile in registration response")
	}
}

func TestProfileRegistrationDuplicate(t *testing.T) {
	s := newTestServer(t)

	body := `{"address":"0xaaaa000000000000000000000000000000000002"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/profiles", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		s.router.ServeHTTP(w, req)

		if w.Code != want {
			t.Errorf("Attempt %d: expected %d, got %d: %s", i+1, want, w.Code, w.Body.String())
		}
	}
}

// ---------------------------------------------------------------------------
// Auth enforcement tests
// ---------------------------------------------------------------------------

func TestReportSubmissionRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	body := `{"campaign_id":"cmp_1","reason":"scam","details":"looks fake"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without API key, got %d", w.Code)
	}
}

func TestAdminOverviewRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/admin/overview", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without API key, got %d", w.Code)
	}
}

func TestAuthenticatedReportFlow(t *testing.T) {
	s := newTestServer(t)

	// Register a reporter profile and grab its API key.
	body := `{"address":"0xbbbb000000000000000000000000000000000001"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/profiles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Registration failed: %d: %s", w.Code, w.Body.String())
	}

	var reg map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatalf("Failed to parse registration response: %v", err)
	}
	apiKey, _ := reg["apiKey"].(string)
	if apiKey == "" {
		t.Fatal("No API key in registration response")
	}

	// Report a nonexistent campaign with the key. The request authenticates
	// but fails lookup, so we expect 404 rather than 401.
	reportBody := `{"campaign_id":"cmp_missing","reason":"scam","details":"looks fake"}`
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/v1/reports", strings.NewReader(reportBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown campaign, got %d: %s", w.Code, w.Body.String())
	}
}

// registerWallet registers a profile over HTTP and returns its API key.
func registerWallet(t *testing.T, s *Server, addr string) string {
	t.Helper()

	body := fmt.Sprintf(`{"address":%q}`, addr)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/profiles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Registration of %s failed: %d: %s", addr, w.Code, w.Body.String())
	}
	var reg map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatalf("Failed to parse registration response: %v", err)
	}
	apiKey, _ := reg["apiKey"].(string)
	if apiKey == "" {
		t.Fatal("No API key in registration response")
	}
	return apiKey
}

// listReports fetches a campaign's reports with the given headers and returns
// the first report in the listing.
func listReports(t *testing.T, s *Server, campaignID string, headers map[string]string) map[string]interface{} {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/campaigns/"+campaignID+"/reports", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Listing reports failed: %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Reports []map[string]interface{} `json:"reports"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse listing response: %v", err)
	}
	if len(resp.Reports) == 0 {
		t.Fatal("Expected at least one report in listing")
	}
	return resp.Reports[0]
}

func TestAdminReportViewUnredacted(t *testing.T) {
	cfg := testConfig()
	cfg.AdminSecret = "test-admin-secret"
	// Relax the guard so freshly registered wallets can act immediately.
	cfg.MinAccountAgeDays = 0
	cfg.MinVerificationLevel = 0
	cfg.MinWalletBalance = "0"

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	const (
		creatorAddr  = "0xcccc000000000000000000000000000000000001"
		reporterAddr = "0xcccc000000000000000000000000000000000002"
		details      = "creator address reused from a collapsed project"
	)
	creatorKey := registerWallet(t, s, creatorAddr)
	reporterKey := registerWallet(t, s, reporterAddr)

	// Creator registers a campaign.
	campaignBody := fmt.Sprintf(`{
		"creator_address": %q,
		"title": "Community Garden",
		"description": "Raised beds for the block.",
		"goal": "1000",
		"deadline": "2027-01-01T00:00:00Z",
		"milestones": [{"title": "Build", "description": "Assemble beds and fill with soil"}]
	}`, creatorAddr)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/campaigns", strings.NewReader(campaignBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creatorKey)
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Campaign registration failed: %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Campaign struct {
			ID string `json:"id"`
		} `json:"campaign"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse campaign response: %v", err)
	}
	campaignID := created.Campaign.ID

	// Reporter files a report against it.
	reportBody := fmt.Sprintf(`{"campaign_id":%q,"reason":"scam","details":%q}`, campaignID, details)
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/v1/reports", strings.NewReader(reportBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+reporterKey)
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Report submission failed: %d: %s", w.Code, w.Body.String())
	}

	// Anonymous callers get the redacted view of the unresolved report.
	anon := listReports(t, s, campaignID, nil)
	if anon["details"] != nil || anon["reporterAddress"] != nil {
		t.Errorf("Anonymous listing leaked report contents: %v", anon)
	}

	// An authenticated admin with the correct secret sees everything.
	adminView := listReports(t, s, campaignID, map[string]string{
		"Authorization":  "Bearer " + reporterKey,
		"X-Admin-Secret": "test-admin-secret",
	})
	if adminView["details"] != details {
		t.Errorf("Admin listing redacted details: got %v", adminView["details"])
	}
	if adminView["reporterAddress"] != reporterAddr {
		t.Errorf("Admin listing redacted reporter: got %v", adminView["reporterAddress"])
	}

	// A wrong secret falls back to the redacted view.
	wrongSecret := listReports(t, s, campaignID, map[string]string{
		"Authorization":  "Bearer " + reporterKey,
		"X-Admin-Secret": "wrong",
	})
	if wrongSecret["details"] != nil {
		t.Errorf("Wrong admin secret still got details: %v", wrongSecret["details"])
	}

	// So does an API key without any secret at all.
	noSecret := listReports(t, s, campaignID, map[string]string{
		"Authorization": "Bearer " + reporterKey,
	})
	if noSecret["details"] != nil {
		t.Errorf("Authenticated non-admin got details: %v", noSecret["details"])
	}
}

// ---------------------------------------------------------------------------
// 404 test
// ---------------------------------------------------------------------------

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/nonexistent", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}
