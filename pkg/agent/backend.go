package agent

import (
	"context"
	"encoding/json"

	"github.com/feedpilot/feedpilot/pkg/feedreader"
	"github.com/feedpilot/feedpilot/pkg/logger"
	"github.com/feedpilot/feedpilot/pkg/tools"
)

// ToolBackend supplies the catalog offered to the model and executes the
// calls the model makes. The error return is reserved for failures that
// abort the whole exchange (lost transport, dead session); a failing tool
// is reported inside the Result and the conversation continues.
type ToolBackend interface {
	Tools() []tools.Descriptor
	Execute(ctx context.Context, name string, args map[string]any) (*tools.Result, error)
}

// LocalBackend serves the compiled-in feed tools over a direct FreshRSS
// client. Execute never fails the exchange: every problem a local tool can
// have is content for the model.
type LocalBackend struct {
	registry *tools.Registry
}

func NewLocalBackend(source tools.FeedSource, cache *tools.ArticleCache) *LocalBackend {
	registry := tools.NewRegistry()
	tools.RegisterFeedTools(registry, source, cache)
	return &LocalBackend{registry: registry}
}

func (b *LocalBackend) Tools() []tools.Descriptor {
	return b.registry.Descriptors()
}

func (b *LocalBackend) Execute(ctx context.Context, name string, args map[string]any) (*tools.Result, error) {
	return b.registry.Execute(ctx, name, args), nil
}

// ToolClient is the slice of the MCP client the remote backend needs.
// *mcp.Client satisfies it; tests substitute fakes.
type ToolClient interface {
	Connect(ctx context.Context) error
	Tools() ([]tools.Descriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error)
	Close() error
}

// RemoteBackend serves tools discovered from an MCP server. The catalog is
// whatever the server advertised at connect time; calls are passed through
// unchanged.
type RemoteBackend struct {
	client ToolClient
	cache  *tools.ArticleCache
}

func NewRemoteBackend(client ToolClient, cache *tools.ArticleCache) *RemoteBackend {
	return &RemoteBackend{client: client, cache: cache}
}

// Connect dials the server and discovers the catalog. The caller owns the
// session lifetime and must Close on every exit path.
func (b *RemoteBackend) Connect(ctx context.Context) error {
	return b.client.Connect(ctx)
}

func (b *RemoteBackend) Close() error {
	return b.client.Close()
}

func (b *RemoteBackend) Tools() []tools.Descriptor {
	catalog, err := b.client.Tools()
	if err != nil {
		logger.WarnCF("agent", "Remote catalog unavailable", map[string]any{"error": err.Error()})
		return nil
	}
	return catalog
}

func (b *RemoteBackend) Execute(ctx context.Context, name string, args map[string]any) (*tools.Result, error) {
	text, isError, err := b.client.CallTool(ctx, name, args)
	if err != nil {
		return nil, err
	}
	if isError {
		return tools.ErrorResult(text), nil
	}

	if name == "get_unread_articles" && b.cache != nil {
		b.refreshCache(text)
	}
	return tools.NewResult(text), nil
}

// refreshCache mirrors a fetched article list into the shared cache so a
// later summarize call can reuse it without another round trip. Payloads
// that do not carry an article list are left alone.
func (b *RemoteBackend) refreshCache(payload string) {
	var parsed struct {
		Articles []struct {
			ID             string `json:"id"`
			Title          string `json:"title"`
			URL            string `json:"url"`
			Feed           string `json:"feed"`
			Author         string `json:"author"`
			Content        string `json:"content"`
			ContentPreview string `json:"content_preview"`
		} `json:"articles"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil || parsed.Articles == nil {
		return
	}

	articles := make([]feedreader.Article, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		content := a.Content
		if content == "" {
			content = a.ContentPreview
		}
		articles = append(articles, feedreader.Article{
			ID:        a.ID,
			Title:     a.Title,
			URL:       a.URL,
			FeedTitle: a.Feed,
			Author:    a.Author,
			Content:   content,
		})
	}

	b.cache.Put(articles)
	logger.DebugCF("agent", "Article cache refreshed from remote fetch", map[string]any{
		"articles": len(articles),
	})
}
