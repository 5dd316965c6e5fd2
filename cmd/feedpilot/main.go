// FeedPilot - AI reading assistant for FreshRSS
// License: MIT
//
// Copyright (c) 2026 FeedPilot contributors

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/feedpilot/feedpilot/pkg/config"
	"github.com/feedpilot/feedpilot/pkg/logger"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const logo = "📡"

// formatVersion returns the version string with optional git commit
func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// formatBuildInfo returns build time and go version info
func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion() {
	fmt.Printf("%s feedpilot %s\n", logo, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Printf("  Go: %s\n", goVer)
	}
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		chatCmd()
	case "digest":
		digestCmd()
	case "status":
		statusCmd()
	case "init":
		initCmd()
	case "version", "--version", "-v":
		printVersion()
	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s feedpilot - AI reading assistant for FreshRSS v%s\n\n", logo, version)
	fmt.Println("Usage: feedpilot <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  chat        Chat about your feeds (interactive, or one-shot with -m)")
	fmt.Println("  digest      Generate a reading digest of unread articles")
	fmt.Println("  status      Show resolved configuration and backend reachability")
	fmt.Println("  init        Write a starter config file")
	fmt.Println("  version     Show version information")
	fmt.Println()
	fmt.Println("Chat options:")
	fmt.Println("  -m, --message <text>  One-shot message instead of interactive mode")
	fmt.Println("  --mcp / --local       Select the tool backend (overrides config)")
	fmt.Println("  --model <id>          Override the Claude model")
	fmt.Println("  --debug               Enable debug logging")
	fmt.Println()
	fmt.Println("Digest options:")
	fmt.Println("  --markdown            Ask for Markdown output")
	fmt.Println("  --slack               Post the digest to the configured Slack webhook")
	fmt.Println("  --slack-test          Post a Slack test message and exit")
	fmt.Println("  --limit <n>           Cap how many unread articles the digest covers")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  feedpilot chat")
	fmt.Println("  feedpilot chat -m \"what's unread today?\"")
	fmt.Println("  feedpilot digest --markdown")
	fmt.Println("  feedpilot digest --slack --limit 30")
}

// loadConfig resolves the runtime paths, loads the layered config, and
// applies its logging settings.
func loadConfig() (*config.Config, error) {
	paths := config.ResolveRuntimePaths()
	cfg, err := config.LoadConfig(paths.ConfigPath)
	if err != nil {
		return nil, err
	}

	if cfg.LogLevel != "" {
		logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	}
	if cfg.LogFile != "" {
		if err := logger.EnableFileLogging(cfg.LogFile); err != nil {
			logger.WarnCF("cli", "Could not open log file", map[string]any{
				"path":  cfg.LogFile,
				"error": err.Error(),
			})
		}
	}

	return cfg, nil
}
