package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all moderation tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("wowzarush-moderation", "1.0.0")
	client := NewModerationClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolCheckCampaignRisk, h.HandleCheckCampaignRisk)
	s.AddTool(ToolGetCampaign, h.HandleGetCampaign)
	s.AddTool(ToolListReports, h.HandleListReports)
	s.AddTool(ToolReportCampaign, h.HandleReportCampaign)
	s.AddTool(ToolGetSpamRules, h.HandleGetSpamRules)

	// Only useful when an admin secret is configured; the API rejects the
	// call otherwise.
	s.AddTool(ToolGetOverview, h.HandleGetOverview)

	return s
}
