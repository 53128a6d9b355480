package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the WowzaRush platform.
type Config struct {
	APIURL      string // Base URL, e.g. "http://localhost:8080"
	APIKey      string // API key, e.g. "sk_..."
	AdminSecret string // Optional; unlocks moderator tools
}

// ModerationClient is a pure HTTP client for the WowzaRush moderation API.
type ModerationClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewModerationClient creates a new client for the WowzaRush platform.
func NewModerationClient(cfg Config) *ModerationClient {
	return &ModerationClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the platform.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the platform and returns the response body.
func (c *ModerationClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.AdminSecret != "" {
		req.Header.Set("X-Admin-Secret", c.cfg.AdminSecret)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// GetCampaignRisk returns the fresh risk assessment for a campaign.
func (c *ModerationClient) GetCampaignRisk(ctx context.Context, campaignID string) (json.RawMessage, error) {
	path := "/v1/campaigns/" + campaignID + "/risk"
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// GetCampaign returns the public view of a campaign.
func (c *ModerationClient) GetCampaign(ctx context.Context, campaignID string) (json.RawMessage, error) {
	path := "/v1/campaigns/" + campaignID
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// ListReports lists reports filed against a campaign, newest first.
func (c *ModerationClient) ListReports(ctx context.Context, campaignID, cursor string, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/campaigns/" + campaignID + "/reports"
	return c.doRequest(ctx, http.MethodGet, path, q, nil)
}

// SubmitReport files a report against a campaign.
func (c *ModerationClient) SubmitReport(ctx context.Context, campaignID, reason, details string, evidence []string) (json.RawMessage, error) {
	body := map[string]any{
		"campaign_id": campaignID,
		"reason":      reason,
		"details":     details,
	}
	if len(evidence) > 0 {
		body["evidence"] = evidence
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/reports", nil, body)
}

// GetSpamRules returns the current spam prevention thresholds.
func (c *ModerationClient) GetSpamRules(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/spam/rules", nil, nil)
}

// GetOverview returns the moderation dashboard aggregate. Requires the
// admin secret to be configured.
func (c *ModerationClient) GetOverview(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/admin/overview", nil, nil)
}
