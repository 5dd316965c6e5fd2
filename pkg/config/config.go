package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type AnthropicConfig struct {
	APIKey      string  `json:"api_key" env:"ANTHROPIC_API_KEY"`
	BaseURL     string  `json:"base_url,omitempty" env:"ANTHROPIC_BASE_URL"`
	Model       string  `json:"model" env:"FEEDPILOT_MODEL"`
	MaxTokens   int     `json:"max_tokens" env:"FEEDPILOT_MAX_TOKENS"`
	Temperature float64 `json:"temperature,omitempty" env:"FEEDPILOT_TEMPERATURE"`
}

type FreshRSSConfig struct {
	APIURL            string  `json:"api_url" env:"FRESHRSS_API_URL"`
	Username          string  `json:"username" env:"FRESHRSS_USERNAME"`
	APIPassword       string  `json:"api_password" env:"FRESHRSS_API_PASSWORD"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" env:"FEEDPILOT_FRESHRSS_RPS"`
}

// MCPConfig describes the remote tool server. URL selects the streamable HTTP
// transport; Command selects a stdio transport instead (mostly used for local
// servers and tests). When both are set, Command wins.
type MCPConfig struct {
	URL              string            `json:"url" env:"MCP_SERVER_URL"`
	AuthToken        string            `json:"auth_token,omitempty" env:"MCP_AUTH_TOKEN"`
	Command          string            `json:"command,omitempty"`
	Args             []string          `json:"args,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
	StartupTimeoutMS int               `json:"startup_timeout_ms,omitempty"`
	CallTimeoutMS    int               `json:"call_timeout_ms,omitempty"`
}

type SlackConfig struct {
	WebhookURL string `json:"webhook_url,omitempty" env:"SLACK_WEBHOOK_URL"`
}

type AgentConfig struct {
	UseMCP bool `json:"use_mcp" env:"FEEDPILOT_USE_MCP"`
	// MaxToolTurns bounds the number of tool-dispatch rounds within one chat
	// exchange. Zero means unbounded.
	MaxToolTurns int    `json:"max_tool_turns,omitempty" env:"FEEDPILOT_MAX_TOOL_TURNS"`
	SystemPrompt string `json:"system_prompt,omitempty" env:"FEEDPILOT_SYSTEM_PROMPT"`
}

type Config struct {
	Anthropic AnthropicConfig `json:"anthropic"`
	FreshRSS  FreshRSSConfig  `json:"freshrss"`
	MCP       MCPConfig       `json:"mcp"`
	Slack     SlackConfig     `json:"slack"`
	Agent     AgentConfig     `json:"agent"`
	LogLevel  string          `json:"log_level,omitempty" env:"FEEDPILOT_LOG_LEVEL"`
	LogFile   string          `json:"log_file,omitempty" env:"FEEDPILOT_LOG_FILE"`
}

// LoadConfig resolves configuration in three layers: compiled defaults,
// then the JSON config file (a missing file is fine), then environment
// variables on top.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Validate checks that the credentials required for the selected backend are
// present. FreshRSS credentials are only required in local-tools mode.
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return errors.New("anthropic api key is not set (ANTHROPIC_API_KEY)")
	}
	if c.Agent.UseMCP {
		if c.MCP.URL == "" && c.MCP.Command == "" {
			return errors.New("mcp server url is not set (MCP_SERVER_URL)")
		}
		return nil
	}
	if c.FreshRSS.APIURL == "" || c.FreshRSS.Username == "" || c.FreshRSS.APIPassword == "" {
		return errors.New("freshrss credentials are incomplete (FRESHRSS_API_URL, FRESHRSS_USERNAME, FRESHRSS_API_PASSWORD)")
	}
	return nil
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
