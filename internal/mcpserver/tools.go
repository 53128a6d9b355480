package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the WowzaRush moderation MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolCheckCampaignRisk = mcp.NewTool("check_campaign_risk",
	mcp.WithDescription(
		"Compute the current risk assessment for a crowdfunding campaign. "+
			"Returns the 0-100 score, the risk level (low/medium/high/critical), "+
			"which risk factors fired, and who flagged the campaign (system, admin, or nobody)."),
	mcp.WithString("campaign_id",
		mcp.Required(),
		mcp.Description("The campaign ID (e.g. 'cmp_a1b2c3')")),
)

var ToolGetCampaign = mcp.NewTool("get_campaign",
	mcp.WithDescription(
		"Fetch a crowdfunding campaign's public details: title, creator wallet, "+
			"funding goal, deadline, and milestones. Use this before assessing or reporting a campaign."),
	mcp.WithString("campaign_id",
		mcp.Required(),
		mcp.Description("The campaign ID (e.g. 'cmp_a1b2c3')")),
)

var ToolListReports = mcp.NewTool("list_reports",
	mcp.WithDescription(
		"List community reports filed against a campaign, newest first. "+
			"Public callers see redacted reports; with an admin secret configured, "+
			"reporter identity and unresolved report details are included."),
	mcp.WithString("campaign_id",
		mcp.Required(),
		mcp.Description("The campaign ID to list reports for")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of reports to return (default 20, max 100)")),
)

var ToolReportCampaign = mcp.NewTool("report_campaign",
	mcp.WithDescription(
		"File a report against a suspicious campaign. "+
			"The report enters the moderation queue and immediately feeds into the "+
			"campaign's risk score. Submissions are rate limited per wallet."),
	mcp.WithString("campaign_id",
		mcp.Required(),
		mcp.Description("The campaign ID being reported")),
	mcp.WithString("reason",
		mcp.Required(),
		mcp.Description("Report category"),
		mcp.Enum("scam", "fraud", "inappropriate", "copyright", "duplicate", "other")),
	mcp.WithString("details",
		mcp.Required(),
		mcp.Description("What looks wrong, in plain language")),
	mcp.WithString("evidence",
		mcp.Description("Optional supporting URL (e.g. a link to the original project that was copied)")),
)

var ToolGetSpamRules = mcp.NewTool("get_spam_rules",
	mcp.WithDescription(
		"Get the platform's current spam prevention thresholds: minimum account age, "+
			"required verification level, minimum wallet balance, and per-action rate limits."),
)

var ToolGetOverview = mcp.NewTool("get_moderation_overview",
	mcp.WithDescription(
		"Get the moderation dashboard aggregate: open report count, flagged campaigns, "+
			"and the risk level distribution across recent campaigns. Requires an admin secret."),
)
