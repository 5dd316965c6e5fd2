package feedreader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/feedpilot/feedpilot/pkg/config"
	"github.com/feedpilot/feedpilot/pkg/logger"
)

const (
	readingListStream = "user/-/state/com.google/reading-list"
	readStateTag      = "user/-/state/com.google/read"

	defaultRequestsPerSecond = 4
	defaultUnreadLimit       = 20
)

// Client talks to a FreshRSS instance through its Google Reader compatible API.
// Reference: https://freshrss.github.io/FreshRSS/en/developers/06_GoogleReader_API.html
type Client struct {
	apiURL   string
	username string
	password string

	httpClient *http.Client
	limiter    *rate.Limiter

	mu        sync.Mutex
	authToken string
}

func NewClient(cfg config.FreshRSSConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	return &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		username:   cfg.Username,
		password:   cfg.APIPassword,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Login authenticates via ClientLogin and stores the session token. It is
// called lazily by the other methods; calling it up front surfaces credential
// problems before the first real request.
func (c *Client) Login(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{
		"Email":  {c.username},
		"Passwd": {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/accounts/ClientLogin", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("freshrss login: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("freshrss login: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("freshrss login failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Response lines look like: SID=...\nLSID=...\nAuth=...
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		if token, ok := strings.CutPrefix(line, "Auth="); ok {
			c.mu.Lock()
			c.authToken = token
			c.mu.Unlock()
			logger.DebugC("freshrss", "Authenticated with FreshRSS")
			return nil
		}
	}

	return fmt.Errorf("freshrss login: no Auth token in response")
}

// UnreadArticles fetches up to limit unread entries from the reading list.
func (c *Client) UnreadArticles(ctx context.Context, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = defaultUnreadLimit
	}

	params := url.Values{
		"xt":     {readStateTag},
		"n":      {fmt.Sprintf("%d", limit)},
		"output": {"json"},
	}
	endpoint := fmt.Sprintf("%s/reader/api/0/stream/contents/%s?%s",
		c.apiURL, readingListStream, params.Encode())

	body, err := c.getAuthed(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch unread articles: %w", err)
	}

	var stream struct {
		Items []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Author    string `json:"author"`
			Published int64  `json:"published"`
			Canonical []struct {
				Href string `json:"href"`
			} `json:"canonical"`
			Alternate []struct {
				Href string `json:"href"`
			} `json:"alternate"`
			Origin struct {
				Title string `json:"title"`
			} `json:"origin"`
			Summary struct {
				Content string `json:"content"`
			} `json:"summary"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &stream); err != nil {
		return nil, fmt.Errorf("fetch unread articles: parse response: %w", err)
	}

	articles := make([]Article, 0, len(stream.Items))
	for _, item := range stream.Items {
		articleURL := ""
		if len(item.Canonical) > 0 {
			articleURL = item.Canonical[0].Href
		} else if len(item.Alternate) > 0 {
			articleURL = item.Alternate[0].Href
		}
		articles = append(articles, Article{
			ID:        item.ID,
			Title:     item.Title,
			URL:       articleURL,
			FeedTitle: item.Origin.Title,
			Author:    item.Author,
			Content:   item.Summary.Content,
			Published: item.Published,
		})
	}

	logger.DebugCF("freshrss", "Fetched unread articles", map[string]any{
		"count": len(articles),
		"limit": limit,
	})
	return articles, nil
}

// MarkRead adds the read state tag to the given item IDs. A nil or empty
// list is a no-op.
func (c *Client) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	// Write operations need a short-lived edit token first.
	tokenBody, err := c.getAuthed(ctx, c.apiURL+"/reader/api/0/token")
	if err != nil {
		return fmt.Errorf("mark read: fetch edit token: %w", err)
	}
	editToken := strings.TrimSpace(string(tokenBody))

	form := url.Values{
		"i": ids,
		"a": {readStateTag},
		"T": {editToken},
	}
	body, err := c.postAuthed(ctx, c.apiURL+"/reader/api/0/edit-tag", form)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if strings.TrimSpace(string(body)) != "OK" {
		return fmt.Errorf("mark read: server answered %q, want OK", strings.TrimSpace(string(body)))
	}

	logger.DebugCF("freshrss", "Marked articles read", map[string]any{"count": len(ids)})
	return nil
}

func (c *Client) getAuthed(ctx context.Context, endpoint string) ([]byte, error) {
	return c.doAuthed(ctx, http.MethodGet, endpoint, nil)
}

func (c *Client) postAuthed(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	return c.doAuthed(ctx, http.MethodPost, endpoint, form)
}

// doAuthed performs an authenticated request, logging in lazily on first use
// and once more if the session token has expired.
func (c *Client) doAuthed(ctx context.Context, method, endpoint string, form url.Values) ([]byte, error) {
	if c.token() == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	body, status, err := c.do(ctx, method, endpoint, form)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		logger.WarnC("freshrss", "Session token rejected, re-authenticating")
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
		body, status, err = c.do(ctx, method, endpoint, form)
		if err != nil {
			return nil, err
		}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, form url.Values) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "GoogleLogin auth="+c.token())
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authToken
}
