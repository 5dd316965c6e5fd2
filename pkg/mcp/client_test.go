package mcp

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/feedpilot/feedpilot/pkg/config"
)

const mcpHelperEnv = "FEEDPILOT_MCP_TEST_HELPER"

func TestMain(m *testing.M) {
	if os.Getenv(mcpHelperEnv) == "1" {
		runHelperServer()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// runHelperServer serves a minimal feed-tool server over stdio. The test
// binary re-execs itself with mcpHelperEnv set to become the server child.
func runHelperServer() {
	type FetchInput struct {
		Limit int `json:"limit,omitempty" jsonschema:"maximum number of articles"`
	}
	type FetchOutput struct {
		Count int `json:"count"`
	}
	type MarkInput struct {
		ArticleIDs []string `json:"article_ids" jsonschema:"ids of the articles to mark"`
	}
	type FailInput struct {
		Reason string `json:"reason,omitempty" jsonschema:"optional failure reason"`
	}
	type FailOutput struct {
		Message string `json:"message"`
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "feedpilot-test-server", Version: "v1.0.0"}, nil)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "get_unread_articles", Description: "fetch unread articles"}, func(_ context.Context, _ *sdkmcp.CallToolRequest, in FetchInput) (*sdkmcp.CallToolResult, FetchOutput, error) {
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{
				&sdkmcp.TextContent{Text: `{"count": 1, "articles": [{"id": "1", "title": "A"}]}`},
			},
		}, FetchOutput{Count: 1}, nil
	})
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "mark_articles_read", Description: "mark articles as read"}, func(_ context.Context, _ *sdkmcp.CallToolRequest, in MarkInput) (*sdkmcp.CallToolResult, map[string]int, error) {
		return nil, map[string]int{"marked_count": len(in.ArticleIDs)}, nil
	})
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "always_fails", Description: "always reports a tool error"}, func(_ context.Context, _ *sdkmcp.CallToolRequest, _ FailInput) (*sdkmcp.CallToolResult, FailOutput, error) {
		return &sdkmcp.CallToolResult{
			IsError: true,
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: "backend unavailable"}},
		}, FailOutput{Message: "backend unavailable"}, nil
	})

	if err := server.Run(context.Background(), &sdkmcp.StdioTransport{}); err != nil {
		os.Exit(1)
	}
}

func helperClient() *Client {
	return NewClient(config.MCPConfig{
		Command:          os.Args[0],
		Env:              map[string]string{mcpHelperEnv: "1"},
		StartupTimeoutMS: 8000,
		CallTimeoutMS:    5000,
	})
}

func TestClient_ConnectDiscoversCatalog(t *testing.T) {
	client := helperClient()
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer client.Close()

	catalog, err := client.Tools()
	if err != nil {
		t.Fatalf("Tools() error: %v", err)
	}
	if len(catalog) != 3 {
		t.Fatalf("Tools() returned %d descriptors, want 3", len(catalog))
	}

	byName := make(map[string]int, len(catalog))
	for i, d := range catalog {
		byName[d.Name] = i
	}
	idx, ok := byName["get_unread_articles"]
	if !ok {
		t.Fatalf("catalog missing get_unread_articles: %v", byName)
	}

	schema := catalog[idx].InputSchema
	if schema["type"] != "object" {
		t.Errorf("schema.type = %v, want object", schema["type"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema.properties has type %T, want map", schema["properties"])
	}
	if _, ok := props["limit"]; !ok {
		t.Errorf("schema.properties missing limit: %v", props)
	}
}

func TestClient_CallTool(t *testing.T) {
	client := helperClient()
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer client.Close()

	text, isError, err := client.CallTool(context.Background(), "get_unread_articles", map[string]any{"limit": 5})
	if err != nil {
		t.Fatalf("CallTool(get_unread_articles) error: %v", err)
	}
	if isError {
		t.Fatalf("CallTool(get_unread_articles) reported tool error: %s", text)
	}
	if !strings.Contains(text, `"title": "A"`) {
		t.Fatalf("CallTool(get_unread_articles) output missing article: %s", text)
	}

	text, isError, err = client.CallTool(context.Background(), "mark_articles_read", map[string]any{"article_ids": []string{"1", "2"}})
	if err != nil {
		t.Fatalf("CallTool(mark_articles_read) error: %v", err)
	}
	if isError {
		t.Fatalf("CallTool(mark_articles_read) reported tool error: %s", text)
	}
	if !strings.Contains(text, "marked_count") {
		t.Fatalf("CallTool(mark_articles_read) output missing marked_count: %s", text)
	}
}

func TestClient_ToolErrorIsContentNotError(t *testing.T) {
	client := helperClient()
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer client.Close()

	text, isError, err := client.CallTool(context.Background(), "always_fails", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool(always_fails) transport error: %v", err)
	}
	if !isError {
		t.Fatalf("CallTool(always_fails) isError = false, want true")
	}
	if !strings.Contains(text, "backend unavailable") {
		t.Fatalf("CallTool(always_fails) output = %q, want failure text", text)
	}
}

func TestClient_Lifecycle(t *testing.T) {
	client := helperClient()

	if _, err := client.Tools(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Tools() before connect error = %v, want ErrNotConnected", err)
	}
	if _, _, err := client.CallTool(context.Background(), "get_unread_articles", nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("CallTool() before connect error = %v, want ErrNotConnected", err)
	}

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}

	if _, _, err := client.CallTool(context.Background(), "get_unread_articles", nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("CallTool() after close error = %v, want ErrNotConnected", err)
	}
}

func TestClient_ConnectRequiresEndpoint(t *testing.T) {
	client := NewClient(config.MCPConfig{})

	if err := client.Connect(context.Background()); err == nil {
		t.Fatalf("Connect() with no url or command succeeded, want error")
	}
	if _, err := client.Tools(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Tools() after failed connect error = %v, want ErrNotConnected", err)
	}
}

func TestSchemaAsMap_PreservesSchema(t *testing.T) {
	in := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "string"},
		},
	}
	out := schemaAsMap(in)
	props, ok := out["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties lost: %v", out)
	}
	x, ok := props["x"].(map[string]any)
	if !ok || x["type"] != "string" {
		t.Fatalf("nested schema mutated: %v", out)
	}
}

func TestSchemaAsMap_NilFallsBackToEmptyObject(t *testing.T) {
	out := schemaAsMap(nil)
	if out["type"] != "object" {
		t.Fatalf("fallback type = %v, want object", out["type"])
	}
	if _, ok := out["properties"]; !ok {
		t.Fatalf("fallback missing properties: %v", out)
	}
}

func TestRenderResult_Fallbacks(t *testing.T) {
	joined := renderResult(&sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: "first"},
			&sdkmcp.TextContent{Text: "second"},
		},
	})
	if joined != "first\nsecond" {
		t.Errorf("text join = %q, want %q", joined, "first\nsecond")
	}

	structured := renderResult(&sdkmcp.CallToolResult{
		StructuredContent: map[string]int{"marked_count": 2},
	})
	if !strings.Contains(structured, "marked_count") {
		t.Errorf("structured fallback = %q, want marked_count content", structured)
	}

	empty := renderResult(&sdkmcp.CallToolResult{})
	if empty != `{"result": "success"}` {
		t.Errorf("empty fallback = %q", empty)
	}
}
