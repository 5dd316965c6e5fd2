package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/feedpilot/feedpilot/pkg/feedreader"
	"github.com/feedpilot/feedpilot/pkg/tools"
)

func snapshotArticles(ids ...string) []feedreader.Article {
	out := make([]feedreader.Article, 0, len(ids))
	for _, id := range ids {
		out = append(out, feedreader.Article{ID: id, Title: "article " + id})
	}
	return out
}

type fakeToolClient struct {
	catalog   []tools.Descriptor
	responses map[string]string
	isError   bool
	err       error
	calls     []string
	connected bool
	closed    bool
}

func (f *fakeToolClient) Connect(context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeToolClient) Close() error {
	f.closed = true
	return nil
}

func (f *fakeToolClient) Tools() ([]tools.Descriptor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.catalog, nil
}

func (f *fakeToolClient) CallTool(_ context.Context, name string, _ map[string]any) (string, bool, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return "", false, f.err
	}
	return f.responses[name], f.isError, nil
}

func TestRemoteBackend_RefreshesCacheOnFetch(t *testing.T) {
	client := &fakeToolClient{responses: map[string]string{
		"get_unread_articles": `{"count": 2, "articles": [
			{"id": "1", "title": "A", "content_preview": "alpha"},
			{"id": "2", "title": "B", "content_preview": "beta"}
		]}`,
		"mark_articles_read": `{"success": true, "marked_count": 1}`,
	}}
	cache := tools.NewArticleCache()
	backend := NewRemoteBackend(client, cache)

	result, err := backend.Execute(context.Background(), "get_unread_articles", map[string]any{"limit": 5})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("Execute() returned error result: %s", result.ForLLM)
	}
	if cache.Len() != 2 {
		t.Fatalf("cache holds %d articles, want 2", cache.Len())
	}
	if got := cache.Snapshot()[0].Content; got != "alpha" {
		t.Errorf("cached content = %q, want content_preview fallback", got)
	}

	// An unrelated call leaves the cache alone.
	if _, err := backend.Execute(context.Background(), "mark_articles_read", map[string]any{"article_ids": []string{"1"}}); err != nil {
		t.Fatalf("Execute(mark) error: %v", err)
	}
	if cache.Len() != 2 {
		t.Errorf("cache holds %d articles after unrelated call, want 2", cache.Len())
	}

	// A later fetch replaces the whole set.
	client.responses["get_unread_articles"] = `{"count": 1, "articles": [{"id": "9", "title": "Z"}]}`
	if _, err := backend.Execute(context.Background(), "get_unread_articles", nil); err != nil {
		t.Fatalf("Execute(refetch) error: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache holds %d articles after refetch, want 1", cache.Len())
	}
	if got := cache.Snapshot()[0].ID; got != "9" {
		t.Errorf("cached article id = %q, want 9", got)
	}
}

func TestRemoteBackend_NonListPayloadLeavesCache(t *testing.T) {
	client := &fakeToolClient{responses: map[string]string{
		"get_unread_articles": "plain text, not an article list",
	}}
	cache := tools.NewArticleCache()
	cache.Put(snapshotArticles("seed"))
	backend := NewRemoteBackend(client, cache)

	if _, err := backend.Execute(context.Background(), "get_unread_articles", nil); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if cache.Len() != 1 || cache.Snapshot()[0].ID != "seed" {
		t.Errorf("cache disturbed by unparseable payload: %v", cache.Snapshot())
	}
}

func TestRemoteBackend_ToolErrorBecomesResult(t *testing.T) {
	client := &fakeToolClient{
		responses: map[string]string{"get_unread_articles": "backend unavailable"},
		isError:   true,
	}
	backend := NewRemoteBackend(client, tools.NewArticleCache())

	result, err := backend.Execute(context.Background(), "get_unread_articles", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v, want tool failure inside result", err)
	}
	if !result.IsError {
		t.Fatalf("Execute() IsError = false, want true")
	}
	if result.ForLLM != "backend unavailable" {
		t.Errorf("Execute() ForLLM = %q", result.ForLLM)
	}
}

func TestRemoteBackend_TransportErrorPropagates(t *testing.T) {
	wantErr := errors.New("pipe closed")
	backend := NewRemoteBackend(&fakeToolClient{err: wantErr}, tools.NewArticleCache())

	_, err := backend.Execute(context.Background(), "get_unread_articles", nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute() error = %v, want %v", err, wantErr)
	}

	if got := backend.Tools(); got != nil {
		t.Errorf("Tools() = %v, want nil when the catalog is unavailable", got)
	}
}

func TestRemoteBackend_LifecyclePassesThrough(t *testing.T) {
	client := &fakeToolClient{catalog: []tools.Descriptor{{Name: "remote_tool"}}}
	backend := NewRemoteBackend(client, nil)

	if err := backend.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if !client.connected {
		t.Errorf("Connect() did not reach the client")
	}

	catalog := backend.Tools()
	if len(catalog) != 1 || catalog[0].Name != "remote_tool" {
		t.Errorf("Tools() = %v", catalog)
	}

	if err := backend.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !client.closed {
		t.Errorf("Close() did not reach the client")
	}
}

func TestLocalBackend_UnknownToolIsContentNotFailure(t *testing.T) {
	backend := NewLocalBackend(&fakeFeedSource{}, tools.NewArticleCache())

	result, err := backend.Execute(context.Background(), "nonexistent_tool", map[string]any{})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if !result.IsError {
		t.Fatalf("Execute() IsError = false, want true")
	}
	if !strings.Contains(result.ForLLM, "nonexistent_tool") {
		t.Errorf("Execute() ForLLM = %q, want the unknown name reported", result.ForLLM)
	}
}
