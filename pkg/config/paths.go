package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvFeedPilotConfig = "FEEDPILOT_CONFIG"
	EnvFeedPilotHome   = "FEEDPILOT_HOME"
)

type RuntimePaths struct {
	HomeDir     string
	ConfigPath  string
	HistoryPath string
}

// ResolveRuntimePaths locates the FeedPilot home directory and the files under
// it. FEEDPILOT_CONFIG pins an exact config file; FEEDPILOT_HOME moves the whole
// directory; otherwise everything lives under ~/.feedpilot.
func ResolveRuntimePaths() RuntimePaths {
	if configPath := expandHome(strings.TrimSpace(os.Getenv(EnvFeedPilotConfig))); configPath != "" {
		return buildRuntimePaths(filepath.Dir(configPath), configPath)
	}

	homeDir := expandHome(strings.TrimSpace(os.Getenv(EnvFeedPilotHome)))
	if homeDir == "" {
		homeDir = defaultFeedPilotHome()
	}

	return buildRuntimePaths(homeDir, filepath.Join(homeDir, "config.json"))
}

func defaultFeedPilotHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".feedpilot"
	}
	return filepath.Join(home, ".feedpilot")
}

func buildRuntimePaths(homeDir, configPath string) RuntimePaths {
	return RuntimePaths{
		HomeDir:     homeDir,
		ConfigPath:  configPath,
		HistoryPath: filepath.Join(homeDir, "history"),
	}
}
