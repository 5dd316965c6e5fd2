// Package notify delivers digest messages to external channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/slack-go/slack"

	"github.com/feedpilot/feedpilot/pkg/logger"
)

// Slack truncates message display around this many characters; longer
// digests are posted as consecutive webhook messages.
const slackTextLimit = 4000

var ErrNoWebhook = errors.New("notify: slack webhook not configured")

var (
	mdLinkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	mdBoldRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	mdHeaderRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
)

// SlackNotifier posts digest text to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

// Send posts text to the webhook, splitting into consecutive messages
// when it exceeds the Slack display limit. Text is posted as-is; callers
// convert markdown with FormatMrkdwn first.
func (n *SlackNotifier) Send(ctx context.Context, text string) error {
	if n.webhookURL == "" {
		return ErrNoWebhook
	}

	parts := splitForWebhook(text, slackTextLimit)
	for i, part := range parts {
		msg := slack.WebhookMessage{Text: part}
		if err := slack.PostWebhookContext(ctx, n.webhookURL, &msg); err != nil {
			return fmt.Errorf("post slack webhook (part %d/%d): %w", i+1, len(parts), err)
		}
	}

	logger.InfoCF("notify", "Posted to Slack", map[string]any{
		"parts": len(parts),
		"chars": len(text),
	})
	return nil
}

// SendTest posts a fixed message so users can verify their webhook URL.
func (n *SlackNotifier) SendTest(ctx context.Context) error {
	return n.Send(ctx, "*FeedPilot* - Test message\n\nIf you see this, Slack integration is working!")
}

// FormatMrkdwn converts standard Markdown to Slack's mrkdwn dialect:
// [text](url) becomes <url|text>, **bold** becomes *bold*, and #-headers
// become bold lines.
func FormatMrkdwn(md string) string {
	text := mdLinkRe.ReplaceAllString(md, "<$2|$1>")
	text = mdBoldRe.ReplaceAllString(text, "*$1*")
	text = mdHeaderRe.ReplaceAllString(text, "*$1*")
	return text
}

func splitForWebhook(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	parts := make([]string, 0, len(runes)/limit+1)
	for len(runes) > 0 {
		if len(runes) <= limit {
			if tail := strings.TrimSpace(string(runes)); tail != "" {
				parts = append(parts, tail)
			}
			break
		}

		cut := splitPoint(runes, limit)
		if chunk := strings.TrimSpace(string(runes[:cut])); chunk != "" {
			parts = append(parts, chunk)
		}

		runes = runes[cut:]
		for len(runes) > 0 && (runes[0] == '\n' || runes[0] == '\r' || runes[0] == ' ' || runes[0] == '\t') {
			runes = runes[1:]
		}
	}
	return parts
}

// splitPoint prefers a paragraph break, then a newline, then a space,
// scanning back no further than half the limit before cutting hard.
func splitPoint(runes []rune, limit int) int {
	floor := limit / 2
	if floor < 1 {
		floor = 1
	}

	for i := limit; i > floor; i-- {
		if i > 1 && runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	for i := limit; i > floor; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := limit; i > floor; i-- {
		if runes[i-1] == ' ' || runes[i-1] == '\t' {
			return i
		}
	}
	return limit
}
