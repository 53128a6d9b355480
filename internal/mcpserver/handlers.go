package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *ModerationClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *ModerationClient) *Handlers {
	return &Handlers{client: client}
}

// HandleCheckCampaignRisk computes a campaign's risk assessment.
func (h *Handlers) HandleCheckCampaignRisk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	campaignID := req.GetString("campaign_id", "")
	if campaignID == "" {
		return mcp.NewToolResultError("campaign_id is required"), nil
	}

	raw, err := h.client.GetCampaignRisk(ctx, campaignID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check risk: %v", err)), nil
	}

	text, err := formatRisk(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse risk response: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetCampaign fetches a campaign's public details.
func (h *Handlers) HandleGetCampaign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	campaignID := req.GetString("campaign_id", "")
	if campaignID == "" {
		return mcp.NewToolResultError("campaign_id is required"), nil
	}

	raw, err := h.client.GetCampaign(ctx, campaignID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get campaign: %v", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// HandleListReports lists reports against a campaign.
func (h *Handlers) HandleListReports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	campaignID := req.GetString("campaign_id", "")
	if campaignID == "" {
		return mcp.NewToolResultError("campaign_id is required"), nil
	}
	limit := req.GetInt("limit", 20)

	raw, err := h.client.ListReports(ctx, campaignID, "", limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list reports: %v", err)), nil
	}

	text, err := formatReportList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse reports: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleReportCampaign files a report against a campaign.
func (h *Handlers) HandleReportCampaign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	campaignID := req.GetString("campaign_id", "")
	if campaignID == "" {
		return mcp.NewToolResultError("campaign_id is required"), nil
	}
	reason := req.GetString("reason", "")
	if reason == "" {
		return mcp.NewToolResultError("reason is required"), nil
	}
	details := req.GetString("details", "")
	if details == "" {
		return mcp.NewToolResultError("details is required"), nil
	}

	var evidence []string
	if url := req.GetString("evidence", ""); url != "" {
		evidence = append(evidence, url)
	}

	raw, err := h.client.SubmitReport(ctx, campaignID, reason, details, evidence)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to submit report: %v", err)), nil
	}

	text, err := formatSubmitResult(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse submission response: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetSpamRules returns the current spam prevention thresholds.
func (h *Handlers) HandleGetSpamRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetSpamRules(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get spam rules: %v", err)), nil
	}

	text, err := formatRules(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse rules: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetOverview returns the moderation dashboard aggregate.
func (h *Handlers) HandleGetOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetOverview(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get overview: %v", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// --- Formatting helpers ---

func formatRisk(raw json.RawMessage) (string, error) {
	var resp struct {
		Risk map[string]any `json:"risk"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Risk == nil {
		return "", fmt.Errorf("unexpected risk response format")
	}

	var sb strings.Builder
	sb.WriteString("Campaign Risk Assessment:\n")
	if v := getString(resp.Risk, "campaignId"); v != "" {
		sb.WriteString(fmt.Sprintf("  Campaign: %s\n", v))
	}
	if v, ok := getFloat(resp.Risk, "score"); ok {
		sb.WriteString(fmt.Sprintf("  Score: %.0f/100\n", v))
	}
	if v := getString(resp.Risk, "level"); v != "" {
		sb.WriteString(fmt.Sprintf("  Level: %s\n", v))
	}
	if v := getString(resp.Risk, "flaggedBy"); v != "" {
		sb.WriteString(fmt.Sprintf("  Flagged by: %s\n", v))
	}

	if factors, ok := resp.Risk["factors"].(map[string]any); ok {
		var fired []string
		for name, val := range factors {
			if b, ok := val.(bool); ok && b {
				fired = append(fired, name)
			}
		}
		if len(fired) > 0 {
			sb.WriteString(fmt.Sprintf("  Factors fired: %s\n", strings.Join(fired, ", ")))
		} else {
			sb.WriteString("  Factors fired: none\n")
		}
	}

	return sb.String(), nil
}

func formatReportList(raw json.RawMessage) (string, error) {
	var resp struct {
		Reports []map[string]any `json:"reports"`
		HasMore bool             `json:"hasMore"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected reports response format")
	}

	if len(resp.Reports) == 0 {
		return "No reports filed against this campaign.", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d report(s):\n\n", len(resp.Reports)))
	for i, r := range resp.Reports {
		status := "pending"
		if resolved, ok := r["resolved"].(bool); ok && resolved {
			status = "resolved"
		}
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, status, getString(r, "reason")))
		if v := getString(r, "details"); v != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", v))
		}
		if v := getString(r, "resolution"); v != "" {
			sb.WriteString(fmt.Sprintf("   Resolution: %s\n", v))
		}
		if v := getString(r, "createdAt", "created_at"); v != "" {
			sb.WriteString(fmt.Sprintf("   Filed: %s\n", v))
		}
	}
	if resp.HasMore {
		sb.WriteString("\n(more reports available)")
	}
	return sb.String(), nil
}

func formatSubmitResult(raw json.RawMessage) (string, error) {
	var resp struct {
		Report map[string]any `json:"report"`
		Risk   map[string]any `json:"risk"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Report == nil {
		return "", fmt.Errorf("unexpected submission response format")
	}

	var sb strings.Builder
	sb.WriteString("Report submitted.\n")
	if v := getString(resp.Report, "id"); v != "" {
		sb.WriteString(fmt.Sprintf("  Report ID: %s\n", v))
	}
	if resp.Risk != nil {
		if v, ok := getFloat(resp.Risk, "score"); ok {
			sb.WriteString(fmt.Sprintf("  Updated risk score: %.0f/100 (%s)\n", v, getString(resp.Risk, "level")))
		}
	}
	return sb.String(), nil
}

func formatRules(raw json.RawMessage) (string, error) {
	var resp struct {
		Rules map[string]any `json:"rules"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Rules == nil {
		return "", fmt.Errorf("unexpected rules response format")
	}

	var sb strings.Builder
	sb.WriteString("Spam Prevention Rules:\n")
	if v, ok := getFloat(resp.Rules, "minimumAccountAgeDays"); ok {
		sb.WriteString(fmt.Sprintf("  Minimum account age: %.0f day(s)\n", v))
	}
	if v, ok := getFloat(resp.Rules, "minimumVerificationLevel"); ok {
		sb.WriteString(fmt.Sprintf("  Minimum verification level: %.0f\n", v))
	}
	if v := getString(resp.Rules, "minimumWalletBalance"); v != "" {
		sb.WriteString(fmt.Sprintf("  Minimum wallet balance: %s\n", v))
	}
	if v, ok := getFloat(resp.Rules, "campaignsPerDay"); ok {
		sb.WriteString(fmt.Sprintf("  Campaigns per day: %.0f\n", v))
	}
	if v, ok := getFloat(resp.Rules, "commentsPerHour"); ok {
		sb.WriteString(fmt.Sprintf("  Comments per hour: %.0f\n", v))
	}
	if v, ok := getFloat(resp.Rules, "reportsPerDay"); ok {
		sb.WriteString(fmt.Sprintf("  Reports per day: %.0f\n", v))
	}
	return sb.String(), nil
}

func formatJSON(raw json.RawMessage) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw)
	}
	return pretty.String()
}

// getString extracts a string value from a map, trying multiple key names.
func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%g", f)
			}
		}
	}
	return ""
}

// getFloat extracts a float64 value from a map, trying multiple key names.
func getFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}
