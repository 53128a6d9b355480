// WowzaRush MCP Server - Exposes moderation capabilities as MCP tools for LLMs
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/wowzarush/backend/internal/mcpserver"
)

func main() {
	cfg := mcpserver.Config{
		APIURL:      envOrDefault("WOWZARUSH_API_URL", "http://localhost:8080"),
		APIKey:      os.Getenv("WOWZARUSH_API_KEY"),
		AdminSecret: os.Getenv("WOWZARUSH_ADMIN_SECRET"),
	}

	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "WOWZARUSH_API_KEY is required")
		os.Exit(1)
	}

	s := mcpserver.NewMCPServer(cfg)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
