// FeedPilot - AI reading assistant for FreshRSS
// License: MIT

package config

// DefaultConfig returns the default configuration for FeedPilot.
func DefaultConfig() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
		FreshRSS: FreshRSSConfig{
			RequestsPerSecond: 4,
		},
		MCP: MCPConfig{
			URL:              "http://localhost:8080/mcp",
			StartupTimeoutMS: 8000,
			CallTimeoutMS:    30000,
		},
		Agent: AgentConfig{
			UseMCP:       false,
			MaxToolTurns: 0,
		},
		LogLevel: "info",
	}
}
