// FeedPilot - AI reading assistant for FreshRSS
// License: MIT

package main

import (
	"context"
	"fmt"

	"github.com/feedpilot/feedpilot/pkg/agent"
	"github.com/feedpilot/feedpilot/pkg/config"
	"github.com/feedpilot/feedpilot/pkg/feedreader"
	"github.com/feedpilot/feedpilot/pkg/logger"
	"github.com/feedpilot/feedpilot/pkg/mcp"
	"github.com/feedpilot/feedpilot/pkg/tools"
)

// newBackend builds the tool backend the config selects. Remote mode
// connects to the MCP server before returning; the cleanup func closes the
// session and must be deferred by the caller.
func newBackend(ctx context.Context, cfg *config.Config) (agent.ToolBackend, func(), error) {
	cache := tools.NewArticleCache()

	if cfg.Agent.UseMCP {
		client := mcp.NewClient(cfg.MCP)
		backend := agent.NewRemoteBackend(client, cache)
		if err := backend.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect mcp server: %w", err)
		}
		cleanup := func() {
			if err := backend.Close(); err != nil {
				logger.WarnCF("cli", "Error closing MCP session", map[string]any{
					"error": err.Error(),
				})
			}
		}
		return backend, cleanup, nil
	}

	reader := feedreader.NewClient(cfg.FreshRSS)
	return agent.NewLocalBackend(reader, cache), func() {}, nil
}

func backendLabel(cfg *config.Config) string {
	if cfg.Agent.UseMCP {
		if cfg.MCP.Command != "" {
			return fmt.Sprintf("MCP server (stdio: %s)", cfg.MCP.Command)
		}
		return fmt.Sprintf("MCP server (%s)", cfg.MCP.URL)
	}
	return "local FreshRSS tools"
}
