// FeedPilot - AI reading assistant for FreshRSS
// License: MIT

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/feedpilot/feedpilot/pkg/config"
	"github.com/feedpilot/feedpilot/pkg/logger"
	"github.com/feedpilot/feedpilot/pkg/tools"
)

const (
	defaultStartupTimeout = 8 * time.Second
	defaultCallTimeout    = 30 * time.Second
	defaultTerminateWait  = 1 * time.Second
)

// ErrNotConnected is returned when the catalog or a tool is used before
// Connect has succeeded or after Close.
var ErrNotConnected = errors.New("mcp: not connected")

// Client holds a single session against one MCP server. Connect performs
// the handshake and discovers the tool catalog; the session then serves
// every CallTool until Close. The zero value is unusable; use NewClient.
type Client struct {
	cfg         config.MCPConfig
	callTimeout time.Duration

	mu      sync.Mutex
	session *sdkmcp.ClientSession
	catalog []tools.Descriptor
}

func NewClient(cfg config.MCPConfig) *Client {
	return &Client{
		cfg:         cfg,
		callTimeout: durationFromMS(cfg.CallTimeoutMS, defaultCallTimeout),
	}
}

// Connect starts the transport, performs the MCP handshake and fetches the
// tool catalog once. A failed Connect leaves the client closed. Connecting
// an already-connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return nil
	}

	transport, err := c.buildTransport()
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, durationFromMS(c.cfg.StartupTimeoutMS, defaultStartupTimeout))
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "feedpilot", Version: "1.0.0"}, nil)

	// Connect performs the full MCP handshake (initialize + notifications/initialized)
	session, err := client.Connect(connectCtx, transport, nil)
	if err != nil {
		return fmt.Errorf("connect mcp server: %w", err)
	}

	catalog, err := fetchCatalog(connectCtx, session)
	if err != nil {
		session.Close()
		return fmt.Errorf("discover tools: %w", err)
	}

	c.session = session
	c.catalog = catalog

	init := session.InitializeResult()
	logger.InfoCF("mcp", fmt.Sprintf("Connected to %s %s: %d tools", init.ServerInfo.Name, init.ServerInfo.Version, len(catalog)),
		map[string]any{
			"server":   init.ServerInfo.Name,
			"protocol": init.ProtocolVersion,
			"tools":    len(catalog),
		})

	return nil
}

// Tools returns the catalog discovered at connect time.
func (c *Client) Tools() ([]tools.Descriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, ErrNotConnected
	}

	out := make([]tools.Descriptor, len(c.catalog))
	copy(out, c.catalog)
	return out, nil
}

// CallTool invokes a remote tool. The text return carries the tool output;
// isError mirrors the protocol's tool-level error flag. The error return is
// reserved for transport and session failures.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return "", false, ErrNotConnected
	}

	callCtx := ctx
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	res, err := session.CallTool(callCtx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", false, fmt.Errorf("tools/call %s: %w", name, err)
	}

	return renderResult(res), res.IsError, nil
}

// Close shuts the session down. Safe to call multiple times and after a
// failed Connect.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}

	err := c.session.Close()
	c.session = nil
	c.catalog = nil
	return err
}

func (c *Client) buildTransport() (sdkmcp.Transport, error) {
	if c.cfg.Command != "" {
		cmd := exec.Command(c.cfg.Command, c.cfg.Args...)
		if len(c.cfg.Env) > 0 {
			cmd.Env = mergeEnv(os.Environ(), c.cfg.Env)
		}
		cmd.Stderr = os.Stderr
		return &sdkmcp.CommandTransport{
			Command:           cmd,
			TerminateDuration: defaultTerminateWait,
		}, nil
	}

	if c.cfg.URL == "" {
		return nil, errors.New("mcp: neither url nor command configured")
	}

	httpClient := &http.Client{}
	if c.cfg.AuthToken != "" {
		httpClient.Transport = &bearerTransport{
			token: c.cfg.AuthToken,
			base:  http.DefaultTransport,
		}
	}
	return &sdkmcp.StreamableClientTransport{
		Endpoint:             c.cfg.URL,
		HTTPClient:           httpClient,
		DisableStandaloneSSE: true,
	}, nil
}

// fetchCatalog pages through tools/list and converts every entry to the
// catalog type shared with the local backend. Schemas are carried through
// as-is.
func fetchCatalog(ctx context.Context, session *sdkmcp.ClientSession) ([]tools.Descriptor, error) {
	var catalog []tools.Descriptor
	cursor := ""
	for {
		params := &sdkmcp.ListToolsParams{}
		if cursor != "" {
			params.Cursor = cursor
		}
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("tools/list: %w", err)
		}
		for _, t := range res.Tools {
			if t == nil || strings.TrimSpace(t.Name) == "" {
				continue
			}
			catalog = append(catalog, tools.Descriptor{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: schemaAsMap(t.InputSchema),
			})
		}
		if res.NextCursor == "" {
			break
		}
		cursor = res.NextCursor
	}
	return catalog, nil
}

// schemaAsMap round-trips whatever schema representation the SDK produced
// into a plain map without touching its keys. The empty-object fallback only
// applies when the server sent no usable schema at all.
func schemaAsMap(schema any) map[string]any {
	fallback := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}

	if schema == nil {
		return fallback
	}
	if m, ok := schema.(map[string]any); ok {
		return m
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return fallback
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil || out == nil {
		return fallback
	}
	return out
}

// renderResult flattens a tool result to text: the newline-join of all text
// parts, falling back to structured content, then to a minimal JSON marker
// so the model always receives something parseable.
func renderResult(res *sdkmcp.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(*sdkmcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}

	if res.StructuredContent != nil {
		if data, err := json.MarshalIndent(res.StructuredContent, "", "  "); err == nil {
			return string(data)
		}
	}

	if len(res.Content) > 0 {
		return `{"result": "no content"}`
	}
	return `{"result": "success"}`
}

func durationFromMS(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Millisecond
}

func mergeEnv(base []string, extra map[string]string) []string {
	merged := append([]string{}, base...)
	for k, v := range extra {
		merged = append(merged, fmt.Sprintf("%s=%s", k, v))
	}
	return merged
}
