package feedreader

import (
	"html"
	"regexp"
	"strings"
)

// Article is one entry from the reading list.
type Article struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	FeedTitle string `json:"feed"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Published int64  `json:"published"`
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Preview returns the article content as plain text, truncated to max runes.
// Feed content arrives as HTML fragments; tags are dropped so a truncation
// never cuts through markup.
func (a Article) Preview(max int) string {
	text := html.UnescapeString(tagPattern.ReplaceAllString(a.Content, ""))
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
