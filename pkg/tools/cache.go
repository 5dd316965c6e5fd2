package tools

import (
	"sync"

	"github.com/feedpilot/feedpilot/pkg/feedreader"
)

// ArticleCache remembers the article set from the most recent fetch so that
// a later summarization call in the same conversation can reuse it without
// another round trip. Every new fetch replaces the whole set; nothing is
// persisted and nothing expires.
type ArticleCache struct {
	mu       sync.RWMutex
	articles []feedreader.Article
}

func NewArticleCache() *ArticleCache {
	return &ArticleCache{}
}

// Put replaces the cached set.
func (c *ArticleCache) Put(articles []feedreader.Article) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.articles = make([]feedreader.Article, len(articles))
	copy(c.articles, articles)
}

// Snapshot returns a copy of the cached set.
func (c *ArticleCache) Snapshot() []feedreader.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]feedreader.Article, len(c.articles))
	copy(out, c.articles)
	return out
}

func (c *ArticleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.articles)
}
