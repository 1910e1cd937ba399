package llm

import (
	"context"
	"fmt"
	"strings"

	"gofer/engine"
)

const summarizePrompt = "Summarize the following conversation history into a single paragraph. Ignore system messages if any."

// Summarizer condenses rendered conversation history via one ephemeral
// user-role request outside the normal turn flow. It implements
// engine.Summarizer for the store's compaction.
type Summarizer struct {
	model engine.Model
}

// NewSummarizer creates a Summarizer backed by the given model.
func NewSummarizer(model engine.Model) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize asks the model for a one-paragraph summary of history.
func (s *Summarizer) Summarize(ctx context.Context, history string) (string, error) {
	req := []engine.Message{
		engine.UserMessage(summarizePrompt + "\n\n" + history),
	}
	text, err := s.model.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summarize history: %w", err)
	}
	return strings.TrimSpace(text), nil
}
