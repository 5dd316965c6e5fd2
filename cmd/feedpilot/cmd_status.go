// FeedPilot - AI reading assistant for FreshRSS
// License: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/feedpilot/feedpilot/pkg/config"
	"github.com/feedpilot/feedpilot/pkg/feedreader"
	"github.com/feedpilot/feedpilot/pkg/mcp"
)

const probeTimeout = 10 * time.Second

func statusCmd() {
	paths := config.ResolveRuntimePaths()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	fmt.Printf("%s FeedPilot Status\n", logo)
	fmt.Printf("Version: %s\n", formatVersion())
	build, _ := formatBuildInfo()
	if build != "" {
		fmt.Printf("Build: %s\n", build)
	}
	fmt.Println()

	if _, err := os.Stat(paths.ConfigPath); err == nil {
		fmt.Println("Config:", paths.ConfigPath, "✓")
	} else {
		fmt.Println("Config:", paths.ConfigPath, "✗ (run: feedpilot init)")
	}

	fmt.Printf("Model: %s\n", cfg.Anthropic.Model)
	if cfg.Anthropic.APIKey != "" {
		fmt.Println("Anthropic API: ✓")
	} else {
		fmt.Println("Anthropic API: not set")
	}

	fmt.Printf("Backend: %s\n", backendLabel(cfg))
	if cfg.FreshRSS.APIURL != "" {
		fmt.Printf("FreshRSS: %s (user: %s)\n", cfg.FreshRSS.APIURL, cfg.FreshRSS.Username)
	} else {
		fmt.Println("FreshRSS: not set")
	}
	if cfg.Slack.WebhookURL != "" {
		fmt.Println("Slack webhook: ✓")
	} else {
		fmt.Println("Slack webhook: not set")
	}
	fmt.Printf("Log level: %s\n", cfg.LogLevel)
	fmt.Println()

	probeBackend(cfg)
}

// probeBackend checks that the selected tool backend actually answers.
func probeBackend(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if cfg.Agent.UseMCP {
		if cfg.MCP.URL == "" && cfg.MCP.Command == "" {
			fmt.Println("MCP server: not configured")
			return
		}

		client := mcp.NewClient(cfg.MCP)
		if err := client.Connect(ctx); err != nil {
			fmt.Printf("MCP server: ✗ %v\n", err)
			return
		}
		defer client.Close()

		catalog, err := client.Tools()
		if err != nil {
			fmt.Printf("MCP server: ✗ %v\n", err)
			return
		}
		names := make([]string, 0, len(catalog))
		for _, d := range catalog {
			names = append(names, d.Name)
		}
		fmt.Printf("MCP server: ✓ %d tools (%s)\n", len(catalog), strings.Join(names, ", "))
		return
	}

	if cfg.FreshRSS.APIURL == "" || cfg.FreshRSS.Username == "" || cfg.FreshRSS.APIPassword == "" {
		fmt.Println("FreshRSS login: not configured")
		return
	}

	reader := feedreader.NewClient(cfg.FreshRSS)
	if err := reader.Login(ctx); err != nil {
		fmt.Printf("FreshRSS login: ✗ %v\n", err)
		return
	}
	fmt.Printf("FreshRSS login: ✓ (as %s)\n", cfg.FreshRSS.Username)
}
