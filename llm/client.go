// Package llm provides the model capability behind the engine: a
// gollm-backed client that flattens an ordered message history into a
// single prompt, plus the conversation summarizer used by compaction.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/teilomillet/gollm"

	"gofer/engine"
	"gofer/logging"
)

// Options configures a Client. Zero values fall back to the defaults below.
type Options struct {
	Provider  string
	Model     string
	APIKey    string
	MaxTokens int
}

const (
	defaultProvider  = "anthropic"
	defaultMaxTokens = 8192
)

// Client is a gollm-backed completion capability implementing engine.Model.
// Errors are classified but never retried here; the engine surfaces them
// into the conversation.
type Client struct {
	provider string
	llm      gollm.LLM
}

// New creates a Client for the configured provider. An empty APIKey leaves
// key resolution to gollm's environment lookup.
func New(opts Options) (*Client, error) {
	if opts.Provider == "" {
		opts.Provider = defaultProvider
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}

	cfg := []gollm.ConfigOption{
		gollm.SetProvider(opts.Provider),
		gollm.SetMaxTokens(opts.MaxTokens),
		gollm.SetMaxRetries(0), // The engine never retries; neither do we.
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if opts.Model != "" {
		cfg = append(cfg, gollm.SetModel(opts.Model))
	}
	if opts.APIKey != "" {
		cfg = append(cfg, gollm.SetAPIKey(opts.APIKey))
	}

	inner, err := gollm.NewLLM(cfg...)
	if err != nil {
		return nil, fmt.Errorf("create llm client for provider %s: %w", opts.Provider, err)
	}
	logging.Info("llm client ready", "provider", opts.Provider, "model", opts.Model)
	return &Client{provider: opts.Provider, llm: inner}, nil
}

// Complete sends the conversation and returns the model's text.
func (c *Client) Complete(ctx context.Context, msgs []engine.Message) (string, error) {
	system, text := flatten(msgs)

	var promptOpts []gollm.PromptOption
	if system != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(system, gollm.CacheTypeEphemeral))
	}
	prompt := gollm.NewPrompt(text, promptOpts...)

	out, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return "", classify(c.provider, err)
	}
	return out, nil
}

// flatten folds an ordered message history into gollm's single-prompt
// shape: system content (index 0 or absent) becomes the system text,
// assistant turns are labeled inline to preserve multi-turn context.
func flatten(msgs []engine.Message) (system, prompt string) {
	var sys strings.Builder
	var parts []string
	for _, m := range msgs {
		switch m.Role {
		case engine.RoleSystem:
			sys.WriteString(m.Content)
			sys.WriteByte('\n')
		case engine.RoleUser:
			parts = append(parts, m.Content)
		case engine.RoleAssistant:
			if m.Content != "" {
				parts = append(parts, "[Assistant]: "+m.Content)
			}
		}
	}
	prompt = strings.Join(parts, "\n")
	if prompt == "" {
		prompt = "Hello"
	}
	return strings.TrimSpace(sys.String()), prompt
}
