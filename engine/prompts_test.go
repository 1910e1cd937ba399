package engine

import (
	"strings"
	"testing"
)

func TestSystemPrompt_EmbedsToolSchemas(t *testing.T) {
	reg := NewRegistry()
	reg.Register(BashTool{})
	reg.Register(SubAgentTool{})

	prompt := SystemPrompt(reg)

	if !strings.HasPrefix(prompt, "You are a helpful coding agent.") {
		t.Errorf("base persona missing")
	}
	if !strings.Contains(prompt, "## bash: Execute a bash command") {
		t.Errorf("bash tool section missing")
	}
	if !strings.Contains(prompt, `"command"`) {
		t.Errorf("bash schema not embedded")
	}
	if !strings.Contains(prompt, "## subagent:") {
		t.Errorf("subagent tool section missing")
	}
	if !strings.Contains(prompt, "<tool_code>") {
		t.Errorf("tag usage example missing")
	}
	if strings.Index(prompt, "## bash") > strings.Index(prompt, "## subagent") {
		t.Errorf("tool sections not in sorted name order")
	}
}

func TestKindPrompt_KnownKindsAndFallback(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"code", "Code SubAgent"},
		{"test", "Test SubAgent"},
		{"doc", "Documentation SubAgent"},
		{"analysis", "Analysis SubAgent"},
		{"dynamic", "general-purpose SubAgent"},
		{"CODE", "Code SubAgent"},
		{"totally-made-up", "general-purpose SubAgent"},
		{"", "general-purpose SubAgent"},
	}
	for _, tt := range tests {
		if got := KindPrompt(tt.kind); !strings.Contains(got, tt.want) {
			t.Errorf("KindPrompt(%q) missing %q", tt.kind, tt.want)
		}
	}
}
