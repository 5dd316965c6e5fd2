package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/feedpilot/feedpilot/pkg/feedreader"
)

const previewLength = 500

// FeedSource is the slice of the feed-reader client the tools depend on.
type FeedSource interface {
	UnreadArticles(ctx context.Context, limit int) ([]feedreader.Article, error)
	MarkRead(ctx context.Context, ids []string) error
}

// RegisterFeedTools registers the compiled-in tool set backed by a FreshRSS
// client. The cache is shared with summarize_articles so summaries can be
// produced without refetching.
func RegisterFeedTools(reg *Registry, source FeedSource, cache *ArticleCache) {
	reg.Register(&GetUnreadArticlesTool{source: source, cache: cache})
	reg.Register(&MarkArticlesReadTool{source: source})
	reg.Register(&SummarizeArticlesTool{cache: cache})
}

type articleSummary struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Feed           string `json:"feed"`
	Author         string `json:"author"`
	URL            string `json:"url"`
	ContentPreview string `json:"content_preview"`
}

type GetUnreadArticlesTool struct {
	source FeedSource
	cache  *ArticleCache
}

func (t *GetUnreadArticlesTool) Name() string {
	return "get_unread_articles"
}

func (t *GetUnreadArticlesTool) Description() string {
	return "Get unread articles from FreshRSS. Returns article title, source, author, and content preview."
}

func (t *GetUnreadArticlesTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of articles to return, defaults to 20",
				"default":     20,
			},
		},
		"required": []string{},
	}
}

func (t *GetUnreadArticlesTool) Execute(ctx context.Context, args map[string]any) *Result {
	var params struct {
		Limit int `mapstructure:"limit"`
	}
	if err := mapstructure.Decode(args, &params); err != nil {
		return ErrorResult(fmt.Sprintf("invalid arguments: %v", err))
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	articles, err := t.source.UnreadArticles(ctx, params.Limit)
	if err != nil {
		return ErrorResult(fmt.Sprintf("fetching unread articles: %v", err)).WithError(err)
	}

	t.cache.Put(articles)

	summaries := make([]articleSummary, 0, len(articles))
	for _, a := range articles {
		summaries = append(summaries, articleSummary{
			ID:             a.ID,
			Title:          a.Title,
			Feed:           a.FeedTitle,
			Author:         a.Author,
			URL:            a.URL,
			ContentPreview: a.Preview(previewLength),
		})
	}

	payload, err := json.MarshalIndent(map[string]any{
		"count":    len(summaries),
		"articles": summaries,
	}, "", "  ")
	if err != nil {
		return ErrorResult(fmt.Sprintf("encoding articles: %v", err))
	}
	return NewResult(string(payload))
}

type MarkArticlesReadTool struct {
	source FeedSource
}

func (t *MarkArticlesReadTool) Name() string {
	return "mark_articles_read"
}

func (t *MarkArticlesReadTool) Description() string {
	return "Mark specified articles as read"
}

func (t *MarkArticlesReadTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"article_ids": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "List of article IDs to mark as read",
			},
		},
		"required": []string{"article_ids"},
	}
}

func (t *MarkArticlesReadTool) Execute(ctx context.Context, args map[string]any) *Result {
	var params struct {
		ArticleIDs []string `mapstructure:"article_ids"`
	}
	if err := mapstructure.Decode(args, &params); err != nil {
		return ErrorResult(fmt.Sprintf("invalid arguments: %v", err))
	}
	if len(params.ArticleIDs) == 0 {
		return ErrorResult("no article IDs provided")
	}

	if err := t.source.MarkRead(ctx, params.ArticleIDs); err != nil {
		return ErrorResult(fmt.Sprintf("marking articles read: %v", err)).WithError(err)
	}

	payload, _ := json.Marshal(map[string]any{
		"success":      true,
		"marked_count": len(params.ArticleIDs),
	})
	return NewResult(string(payload))
}

type SummarizeArticlesTool struct {
	cache *ArticleCache
}

func (t *SummarizeArticlesTool) Name() string {
	return "summarize_articles"
}

func (t *SummarizeArticlesTool) Description() string {
	return "Request article summarization. This is an instructional tool that tells the agent the user wants summaries."
}

func (t *SummarizeArticlesTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"style": map[string]any{
				"type":        "string",
				"enum":        []string{"brief", "detailed", "bullet_points"},
				"description": "Summary style: brief, detailed, or bullet_points",
				"default":     "brief",
			},
		},
		"required": []string{},
	}
}

func (t *SummarizeArticlesTool) Execute(ctx context.Context, args map[string]any) *Result {
	var params struct {
		Style string `mapstructure:"style"`
	}
	if err := mapstructure.Decode(args, &params); err != nil {
		return ErrorResult(fmt.Sprintf("invalid arguments: %v", err))
	}
	if params.Style == "" {
		params.Style = "brief"
	}

	cached := t.cache.Snapshot()
	if len(cached) == 0 {
		return ErrorResult("no articles cached, call get_unread_articles first")
	}

	// The tool does not summarize anything itself: it hands the cached
	// articles back with an instruction so the model writes the summary.
	articles := make([]map[string]any, 0, len(cached))
	for _, a := range cached {
		articles = append(articles, map[string]any{
			"title":   a.Title,
			"feed":    a.FeedTitle,
			"content": a.Content,
		})
	}

	payload, err := json.Marshal(map[string]any{
		"style":       params.Style,
		"articles":    articles,
		"instruction": fmt.Sprintf("Please summarize these %d articles in %s style.", len(articles), params.Style),
	})
	if err != nil {
		return ErrorResult(fmt.Sprintf("encoding articles: %v", err))
	}
	return NewResult(string(payload))
}
