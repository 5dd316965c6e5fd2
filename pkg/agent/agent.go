// FeedPilot - AI reading assistant for FreshRSS
// License: MIT

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/feedpilot/feedpilot/pkg/config"
	"github.com/feedpilot/feedpilot/pkg/logger"
)

const defaultBaseURL = "https://api.anthropic.com"

const defaultSystemPrompt = "You are an RSS reading assistant that helps users manage and read " +
	"articles from FreshRSS.\n\n" +
	"You can:\n" +
	"1. Get unread articles list\n" +
	"2. Summarize article content\n" +
	"3. Mark articles as read\n\n" +
	"When users ask about articles, first fetch the article list, " +
	"then process according to user needs."

// Agent drives the chat loop: a user message goes in, tool calls fan out to
// the backend until the model stops asking for them, and the final text
// comes back. The transcript is append-only across Chat calls; every call
// sends the full history.
type Agent struct {
	client         *anthropic.Client
	backend        ToolBackend
	model          string
	maxTokens      int64
	temperature    float64
	systemPrompt   string
	maxToolTurns   int
	conversationID string

	messages []anthropic.MessageParam
}

func New(cfg *config.Config, backend ToolBackend) *Agent {
	client := anthropic.NewClient(
		option.WithAuthToken(cfg.Anthropic.APIKey),
		option.WithBaseURL(normalizeBaseURL(cfg.Anthropic.BaseURL)),
	)

	systemPrompt := cfg.Agent.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}

	maxTokens := int64(cfg.Anthropic.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Agent{
		client:         &client,
		backend:        backend,
		model:          cfg.Anthropic.Model,
		maxTokens:      maxTokens,
		temperature:    cfg.Anthropic.Temperature,
		systemPrompt:   systemPrompt,
		maxToolTurns:   cfg.Agent.MaxToolTurns,
		conversationID: uuid.NewString(),
	}
}

// Chat sends one user message and runs the loop until the model ends its
// turn. On error the transcript rolls back to its pre-call state, so a
// failed exchange never leaves a dangling tool_use behind.
func (a *Agent) Chat(ctx context.Context, text string) (string, error) {
	checkpoint := len(a.messages)
	a.messages = append(a.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))

	reply, err := a.run(ctx)
	if err != nil {
		a.messages = a.messages[:checkpoint]
		return "", err
	}
	return reply, nil
}

// Reset drops the conversation history and starts a fresh conversation id.
func (a *Agent) Reset() {
	a.messages = nil
	a.conversationID = uuid.NewString()
	logger.InfoCF("agent", "Conversation reset", map[string]any{
		"conversation_id": a.conversationID,
	})
}

func (a *Agent) run(ctx context.Context) (string, error) {
	catalog := BridgeTools(a.backend.Tools())

	toolTurns := 0
	for {
		resp, err := a.callModel(ctx, catalog)
		if err != nil {
			return "", err
		}

		// The assistant message enters the transcript exactly as returned,
		// tool_use blocks included.
		a.messages = append(a.messages, resp.ToParam())

		switch resp.StopReason {
		case anthropic.StopReasonEndTurn:
			return joinTextBlocks(resp.Content), nil

		case anthropic.StopReasonToolUse:
			if a.maxToolTurns > 0 && toolTurns >= a.maxToolTurns {
				return "", fmt.Errorf("tool loop exceeded %d turns", a.maxToolTurns)
			}
			toolTurns++

			results, err := a.dispatchTools(ctx, resp.Content)
			if err != nil {
				return "", err
			}
			// All results for this assistant turn travel in one user message,
			// in tool_use order.
			a.messages = append(a.messages, anthropic.NewUserMessage(results...))

		default:
			return "", fmt.Errorf("unexpected stop reason %q", resp.StopReason)
		}
	}
}

func (a *Agent) callModel(ctx context.Context, catalog []anthropic.ToolUnionParam) (*anthropic.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		Messages:  a.messages,
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: a.systemPrompt}},
	}
	if a.temperature > 0 {
		params.Temperature = anthropic.Float(a.temperature)
	}
	if len(catalog) > 0 {
		params.Tools = catalog
	}

	logger.DebugCF("agent", "Requesting completion", map[string]any{
		"conversation_id": a.conversationID,
		"messages":        len(a.messages),
		"tools":           len(catalog),
	})

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	logger.DebugCF("agent", "Completion received", map[string]any{
		"conversation_id": a.conversationID,
		"stop_reason":     string(resp.StopReason),
		"input_tokens":    resp.Usage.InputTokens,
		"output_tokens":   resp.Usage.OutputTokens,
	})

	return resp, nil
}

// dispatchTools executes every tool_use block in content order and returns
// the matching tool_result blocks. Tool failures become error-flagged
// results; only a backend failure aborts.
func (a *Agent) dispatchTools(ctx context.Context, blocks []anthropic.ContentBlockUnion) ([]anthropic.ContentBlockParamUnion, error) {
	var results []anthropic.ContentBlockParamUnion
	for _, block := range blocks {
		if block.Type != "tool_use" {
			continue
		}
		tu := block.AsToolUse()

		var args map[string]any
		if len(tu.Input) > 0 {
			if err := json.Unmarshal(tu.Input, &args); err != nil {
				logger.WarnCF("agent", "Undecodable tool input", map[string]any{
					"conversation_id": a.conversationID,
					"tool":            tu.Name,
					"error":           err.Error(),
				})
				args = map[string]any{"raw": string(tu.Input)}
			}
		}
		if args == nil {
			args = map[string]any{}
		}

		logger.InfoCF("agent", fmt.Sprintf("Tool call: %s", tu.Name), map[string]any{
			"conversation_id": a.conversationID,
			"tool":            tu.Name,
			"id":              tu.ID,
		})

		result, err := a.backend.Execute(ctx, tu.Name, args)
		if err != nil {
			return nil, fmt.Errorf("execute tool %s: %w", tu.Name, err)
		}

		results = append(results, anthropic.NewToolResultBlock(tu.ID, result.ForLLM, result.IsError))
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("stop reason tool_use with no tool_use blocks")
	}
	return results, nil
}

func joinTextBlocks(blocks []anthropic.ContentBlockUnion) string {
	var parts []string
	for _, block := range blocks {
		if block.Type == "text" {
			parts = append(parts, block.AsText().Text)
		}
	}
	return strings.Join(parts, "\n")
}

func normalizeBaseURL(apiBase string) string {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		return defaultBaseURL
	}

	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v1")
	if base == "" {
		return defaultBaseURL
	}

	return base
}
