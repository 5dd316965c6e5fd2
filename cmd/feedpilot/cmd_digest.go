// FeedPilot - AI reading assistant for FreshRSS
// License: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/feedpilot/feedpilot/pkg/agent"
	"github.com/feedpilot/feedpilot/pkg/logger"
	"github.com/feedpilot/feedpilot/pkg/notify"
)

func digestCmd() {
	var markdown, toSlack, slackTest, useMCP, useLocal bool
	limit := 0

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--markdown", "-m":
			markdown = true
		case "--slack":
			toSlack = true
		case "--slack-test":
			slackTest = true
		case "--limit":
			if i+1 < len(args) {
				n, err := strconv.Atoi(args[i+1])
				if err != nil || n < 0 {
					fmt.Printf("Invalid --limit value: %s\n", args[i+1])
					os.Exit(1)
				}
				limit = n
				i++
			}
		case "--mcp":
			useMCP = true
		case "--local":
			useLocal = true
		case "--debug", "-d":
			logger.SetLevel(logger.DEBUG)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if useMCP {
		cfg.Agent.UseMCP = true
	}
	if useLocal {
		cfg.Agent.UseMCP = false
	}

	ctx := context.Background()

	if slackTest {
		notifier := notify.NewSlackNotifier(cfg.Slack.WebhookURL)
		if err := notifier.SendTest(ctx); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Test message sent. Check your Slack channel.")
		return
	}

	if toSlack && cfg.Slack.WebhookURL == "" {
		fmt.Println("Configuration error: slack webhook is not set (SLACK_WEBHOOK_URL)")
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Configuration error: %v\n", err)
		os.Exit(1)
	}

	backend, cleanup, err := newBackend(ctx, cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	bot := agent.New(cfg, backend)

	fmt.Println("Generating daily digest...")
	fmt.Println()

	digest, err := bot.Chat(ctx, digestPrompt(limit, markdown || toSlack))
	if err != nil {
		cleanup()
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(digest)

	if toSlack {
		notifier := notify.NewSlackNotifier(cfg.Slack.WebhookURL)
		if err := notifier.Send(ctx, notify.FormatMrkdwn(digest)); err != nil {
			cleanup()
			fmt.Printf("Error posting to Slack: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\n✓ Digest posted to Slack")
	}
}

// digestPrompt builds the fixed digest request. The agent fetches unread
// articles itself through the tool catalog, so the limit lands in the
// instructions rather than in code.
func digestPrompt(limit int, markdown bool) string {
	unread := "1. First get all unread articles"
	if limit > 0 {
		unread = fmt.Sprintf("1. First get all unread articles (limit %d)", limit)
	}

	prompt := "Please generate today's RSS reading digest:\n" +
		unread + "\n" +
		"2. Categorize by source, provide a brief summary for each article\n" +
		"3. Finally recommend the top 3 most worth reading articles for today"

	if markdown {
		prompt += "\n\nPlease output in Markdown format."
	}
	return prompt
}
