package cli

import (
	"bytes"
	"strings"
	"testing"

	"gofer/config"
	"gofer/engine"
	"gofer/session"
)

func newTestREPL(t *testing.T) (*REPL, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.SessionDir = t.TempDir()

	sessions, err := session.NewStore(cfg.SessionDir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	tools := engine.NewRegistry()
	tools.Register(engine.BashTool{})
	tools.Register(engine.SubAgentTool{})

	var out bytes.Buffer
	r := NewREPL(cfg, nil, tools, sessions, engine.NewInterrupts(), nil, strings.NewReader(""), &out)
	r.store.InjectSystem(engine.SystemPrompt(tools))
	return r, &out
}

func TestHandleCommand_Quit(t *testing.T) {
	r, _ := newTestREPL(t)
	for _, cmd := range []string{"/quit", "/exit"} {
		if !r.handleCommand(cmd) {
			t.Errorf("%s did not request quit", cmd)
		}
	}
	if r.handleCommand("/help") {
		t.Errorf("/help requested quit")
	}
}

func TestHandleCommand_SaveAndLoad(t *testing.T) {
	r, out := newTestREPL(t)
	r.store.Append(engine.UserMessage("remember this"))

	r.handleCommand("/save demo")
	if !strings.Contains(out.String(), "Session saved as: demo") {
		t.Fatalf("save output = %q", out.String())
	}

	r.handleCommand("/clear")
	if containsText(r.store.Snapshot(), "remember this") {
		t.Fatalf("clear kept old messages")
	}

	r.handleCommand("/load demo")
	if !containsText(r.store.Snapshot(), "remember this") {
		t.Fatalf("load did not restore messages")
	}
}

func TestHandleCommand_SaveGeneratesID(t *testing.T) {
	r, out := newTestREPL(t)
	r.handleCommand("/save")
	if !strings.Contains(out.String(), "Session saved as: ") {
		t.Fatalf("output = %q", out.String())
	}
	ids, err := r.sessions.List()
	if err != nil || len(ids) != 1 {
		t.Fatalf("ids = %v, err = %v", ids, err)
	}
}

func TestHandleCommand_ClearKeepsSystemPrompt(t *testing.T) {
	r, _ := newTestREPL(t)
	r.store.Append(engine.UserMessage("hi"))
	r.handleCommand("/clear")

	msgs := r.store.Snapshot()
	if len(msgs) != 1 || msgs[0].Role != engine.RoleSystem {
		t.Fatalf("after clear: %+v", msgs)
	}
}

func TestHandleCommand_List(t *testing.T) {
	r, out := newTestREPL(t)
	r.handleCommand("/list")
	if !strings.Contains(out.String(), "No saved sessions") {
		t.Fatalf("output = %q", out.String())
	}

	out.Reset()
	r.handleCommand("/save one")
	out.Reset()
	r.handleCommand("/list")
	if !strings.Contains(out.String(), "- one") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestHandleCommand_Tools(t *testing.T) {
	r, out := newTestREPL(t)
	r.handleCommand("/tools")
	if !strings.Contains(out.String(), "- bash:") {
		t.Fatalf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "- subagent:") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestHandleCommand_Unknown(t *testing.T) {
	r, out := newTestREPL(t)
	r.handleCommand("/bogus")
	if !strings.Contains(out.String(), "Unknown command") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestHandleCommand_LoadMissingSession(t *testing.T) {
	r, out := newTestREPL(t)
	r.handleCommand("/load nope")
	if !strings.Contains(out.String(), "Error loading session") {
		t.Fatalf("output = %q", out.String())
	}
}

func containsText(msgs []engine.Message, text string) bool {
	for _, m := range msgs {
		if strings.Contains(m.Content, text) {
			return true
		}
	}
	return false
}
