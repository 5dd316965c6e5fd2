package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.Anthropic.Model)
	assert.NotZero(t, cfg.Anthropic.MaxTokens)
	assert.Equal(t, "http://localhost:8080/mcp", cfg.MCP.URL)
	assert.NotZero(t, cfg.MCP.StartupTimeoutMS)
	assert.NotZero(t, cfg.MCP.CallTimeoutMS)
	assert.False(t, cfg.Agent.UseMCP, "local tools are the default backend")
	assert.Zero(t, cfg.Agent.MaxToolTurns, "tool loop is unbounded by default")
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope", "config.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().Anthropic.Model, cfg.Anthropic.Model)
}

func TestLoadConfig_FileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	fileCfg := DefaultConfig()
	fileCfg.Anthropic.Model = "claude-from-file"
	fileCfg.FreshRSS.Username = "file-user"
	require.NoError(t, SaveConfig(path, fileCfg))

	t.Setenv("FEEDPILOT_MODEL", "claude-from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "claude-from-env", cfg.Anthropic.Model, "env overrides file")
	assert.Equal(t, "file-user", cfg.FreshRSS.Username, "file overrides defaults")
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file permission bits are not enforced on Windows")
	}

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, SaveConfig(path, DefaultConfig()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestValidate_LocalModeNeedsFreshRSS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Anthropic.APIKey = "sk-test"

	assert.Error(t, cfg.Validate(), "local mode without FreshRSS credentials")

	cfg.FreshRSS.APIURL = "https://rss.example.com/api/greader.php"
	cfg.FreshRSS.Username = "reader"
	cfg.FreshRSS.APIPassword = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MCPModeNeedsEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Anthropic.APIKey = "sk-test"
	cfg.Agent.UseMCP = true
	cfg.MCP.URL = ""

	assert.Error(t, cfg.Validate(), "mcp mode without an endpoint")

	cfg.MCP.Command = "feedpilot-mcp"
	assert.NoError(t, cfg.Validate(), "command transport is enough")
}

func TestValidate_MissingAPIKey(t *testing.T) {
	assert.Error(t, DefaultConfig().Validate())
}

func TestResolveRuntimePaths_Default(t *testing.T) {
	t.Setenv(EnvFeedPilotConfig, "")
	t.Setenv(EnvFeedPilotHome, "")

	paths := ResolveRuntimePaths()

	assert.Equal(t, filepath.Join(paths.HomeDir, "config.json"), paths.ConfigPath)
	assert.Equal(t, filepath.Join(paths.HomeDir, "history"), paths.HistoryPath)
	assert.Contains(t, paths.HomeDir, ".feedpilot")
}

func TestResolveRuntimePaths_HomeOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvFeedPilotConfig, "")
	t.Setenv(EnvFeedPilotHome, dir)

	paths := ResolveRuntimePaths()

	assert.Equal(t, dir, paths.HomeDir)
	assert.Equal(t, filepath.Join(dir, "config.json"), paths.ConfigPath)
}

func TestResolveRuntimePaths_ConfigOverrideWins(t *testing.T) {
	t.Setenv(EnvFeedPilotConfig, "/etc/feedpilot/custom.json")
	t.Setenv(EnvFeedPilotHome, "/ignored")

	paths := ResolveRuntimePaths()

	assert.Equal(t, "/etc/feedpilot/custom.json", paths.ConfigPath)
	assert.Equal(t, "/etc/feedpilot", paths.HomeDir)
}
