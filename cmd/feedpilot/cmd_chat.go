// FeedPilot - AI reading assistant for FreshRSS
// License: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/feedpilot/feedpilot/pkg/agent"
	"github.com/feedpilot/feedpilot/pkg/config"
	"github.com/feedpilot/feedpilot/pkg/logger"
)

func chatCmd() {
	message := ""
	modelOverride := ""
	var useMCP, useLocal bool

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--debug", "-d":
			logger.SetLevel(logger.DEBUG)
		case "-m", "--message":
			if i+1 < len(args) {
				message = args[i+1]
				i++
			}
		case "--mcp":
			useMCP = true
		case "--local":
			useLocal = true
		case "--model":
			if i+1 < len(args) {
				modelOverride = args[i+1]
				i++
			}
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
	if modelOverride != "" {
		cfg.Anthropic.Model = modelOverride
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	backend, cleanup, err := newBackend(ctx, cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	bot := agent.New(cfg, backend)

	if message != "" {
		response, err := bot.Chat(ctx, message)
		if err != nil {
			cleanup()
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n%s %s\n", logo, response)
		return
	}

	fmt.Printf("%s FeedPilot interactive chat (Ctrl+C to exit)\n", logo)
	fmt.Printf("  Backend: %s\n", backendLabel(cfg))
	fmt.Println("  reset - start a new conversation")
	fmt.Println("  quit  - exit")
	fmt.Println()
	interactiveChat(ctx, bot)
}

func interactiveChat(ctx context.Context, bot *agent.Agent) {
	paths := config.ResolveRuntimePaths()
	os.MkdirAll(paths.HomeDir, 0755)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s You: ", logo),
		HistoryFile:     paths.HistoryPath,
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleChatLoop(ctx, bot)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if !handleChatInput(ctx, bot, line) {
			return
		}
	}
}

// simpleChatLoop reads plain stdin lines when readline cannot take over the
// terminal (pipes, dumb terminals).
func simpleChatLoop(ctx context.Context, bot *agent.Agent) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s You: ", logo)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if !handleChatInput(ctx, bot, line) {
			return
		}
	}
}

// handleChatInput processes one line of user input and returns false when
// the user asked to quit.
func handleChatInput(ctx context.Context, bot *agent.Agent, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	switch strings.ToLower(input) {
	case "quit", "exit", "q", "/quit":
		fmt.Println("Goodbye!")
		return false
	case "reset", "/reset":
		bot.Reset()
		fmt.Println("[Conversation history reset]")
		return true
	}

	response, err := bot.Chat(ctx, input)
	if err != nil {
		fmt.Printf("\n[Error: %v]\n\n", err)
		return true
	}
	fmt.Printf("\n%s %s\n\n", logo, response)
	return true
}
