// FeedPilot - AI reading assistant for FreshRSS
// License: MIT

package main

import (
	"fmt"
	"os"

	"github.com/feedpilot/feedpilot/pkg/config"
)

func initCmd() {
	paths := config.ResolveRuntimePaths()

	if _, err := os.Stat(paths.ConfigPath); err == nil {
		fmt.Printf("Config already exists: %s\n", paths.ConfigPath)
		return
	}

	if err := config.SaveConfig(paths.ConfigPath, config.DefaultConfig()); err != nil {
		fmt.Printf("Error writing config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s Created %s\n", logo, paths.ConfigPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Set ANTHROPIC_API_KEY (or fill in the config file)")
	fmt.Println("  2. Set FreshRSS credentials: FRESHRSS_API_URL, FRESHRSS_USERNAME, FRESHRSS_API_PASSWORD")
	fmt.Println("  3. Run: feedpilot chat")
}
