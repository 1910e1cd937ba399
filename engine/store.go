package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Summarizer condenses a rendered span of conversation history into a single
// paragraph. Implementations typically make one ephemeral model request.
type Summarizer interface {
	Summarize(ctx context.Context, history string) (string, error)
}

const (
	// compactKeepRecent is the number of trailing messages kept verbatim
	// through a compaction.
	compactKeepRecent = 4
	// compactMinMessages is the store size at or below which compaction is
	// skipped entirely.
	compactMinMessages = 5

	summaryPrefix            = "Previous conversation summary: "
	summaryFailedPlaceholder = "... Conversation compressed (summary failed) ..."
	noSummarizerPlaceholder  = "... Old conversation compressed ..."
)

// Store is an ordered message log with a token-budget threshold. Each agent
// loop owns exactly one Store and is its only writer; reads may come from
// other goroutines (status inspection, session saves), so access is guarded.
type Store struct {
	mu        sync.RWMutex
	msgs      []Message
	threshold int
}

// NewStore creates an empty Store. The threshold is an approximate token
// budget; Compact is a no-op while the estimated size stays at or below it.
func NewStore(threshold int) *Store {
	return &Store{threshold: threshold}
}

// Append adds a message to the end of the log.
func (s *Store) Append(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
}

// Snapshot returns a copy of the message log.
func (s *Store) Snapshot() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of messages in the log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}

// Reset clears the log. The caller is responsible for re-injecting a system
// message afterwards.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
}

// Restore replaces the log with a previously saved history.
func (s *Store) Restore(msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = make([]Message, len(msgs))
	copy(s.msgs, msgs)
}

// InjectSystem sets the system message content. If the log already starts
// with a system message its content is replaced, otherwise one is inserted
// at index 0. The store never holds more than one system message and it is
// always first.
func (s *Store) InjectSystem(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) > 0 && s.msgs[0].Role == RoleSystem {
		s.msgs[0].Content = text
		return
	}
	s.msgs = append([]Message{SystemMessage(text)}, s.msgs...)
}

// EstimateTokens approximates the token count of the log as the summed
// content length divided by four.
func (s *Store) EstimateTokens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return estimateTokens(s.msgs)
}

func estimateTokens(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += len(m.Content)
	}
	return total / 4
}

// Compact summarizes older messages once the estimated token count exceeds
// the threshold. The leading system message (if any) and the trailing four
// messages survive verbatim; everything between them is replaced by a single
// system message carrying a one-paragraph summary. Compaction is lossy and
// irreversible, and a no-op while the store is small or under budget.
//
// A summarizer failure never fails the compaction: a fixed placeholder is
// substituted for the summary instead.
func (s *Store) Compact(ctx context.Context, summarizer Summarizer) error {
	s.mu.RLock()
	snapshot := make([]Message, len(s.msgs))
	copy(snapshot, s.msgs)
	threshold := s.threshold
	s.mu.RUnlock()

	if estimateTokens(snapshot) <= threshold {
		return nil
	}
	if len(snapshot) <= compactMinMessages {
		return nil
	}

	start := 0
	var system *Message
	if snapshot[0].Role == RoleSystem {
		system = &snapshot[0]
		start = 1
	}
	end := len(snapshot) - compactKeepRecent
	if start >= end {
		return nil
	}

	summary := noSummarizerPlaceholder
	if summarizer != nil {
		rendered := renderSpan(snapshot[start:end])
		text, err := summarizer.Summarize(ctx, rendered)
		if err != nil {
			summary = summaryFailedPlaceholder
		} else {
			summary = text
		}
	}

	rebuilt := make([]Message, 0, 2+compactKeepRecent)
	if system != nil {
		rebuilt = append(rebuilt, *system)
	}
	rebuilt = append(rebuilt, SystemMessage(summaryPrefix+summary))
	rebuilt = append(rebuilt, snapshot[end:]...)

	s.mu.Lock()
	s.msgs = rebuilt
	s.mu.Unlock()
	return nil
}

func renderSpan(msgs []Message) string {
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s: %s", m.Role, m.Content)
	}
	return sb.String()
}
