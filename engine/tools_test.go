package engine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockTool{name: "beta"})
	reg.Register(&mockTool{name: "alpha"})

	if _, ok := reg.Get("alpha"); !ok {
		t.Errorf("alpha not found")
	}
	if _, ok := reg.Get("missing"); ok {
		t.Errorf("lookup of unregistered tool succeeded")
	}
	if reg.Count() != 2 {
		t.Errorf("count = %d, want 2", reg.Count())
	}

	list := reg.List()
	if list[0].Name() != "alpha" || list[1].Name() != "beta" {
		t.Errorf("List not sorted by name: %s, %s", list[0].Name(), list[1].Name())
	}

	reg.Unregister("alpha")
	if _, ok := reg.Get("alpha"); ok {
		t.Errorf("alpha still present after Unregister")
	}
}

func TestBashTool_Success(t *testing.T) {
	out, err := BashTool{}.Call(context.Background(), json.RawMessage(`{"command": "echo hello"}`))
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("output = %q", out)
	}
}

func TestBashTool_NonZeroExitIsTextualResult(t *testing.T) {
	out, err := BashTool{}.Call(context.Background(), json.RawMessage(`{"command": "echo partial; echo broken >&2; exit 3"}`))
	if err != nil {
		t.Fatalf("non-zero exit must not be a Go error: %v", err)
	}
	if !strings.HasPrefix(out, "Error: ") || !strings.Contains(out, "broken") {
		t.Errorf("stderr not surfaced: %q", out)
	}
	if !strings.Contains(out, "Stdout: partial") {
		t.Errorf("stdout not surfaced alongside the failure: %q", out)
	}
}

func TestBashTool_MissingCommand(t *testing.T) {
	if _, err := (BashTool{}).Call(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Fatalf("expected error for missing command argument")
	}
	if _, err := (BashTool{}).Call(context.Background(), json.RawMessage(`not json`)); err == nil {
		t.Fatalf("expected error for malformed arguments")
	}
}

func TestSubTaskSpecFromArgs(t *testing.T) {
	spec, ok := SubTaskSpecFromArgs(json.RawMessage(`{"task": "build it", "type": "code", "max_loops": 7}`))
	if !ok {
		t.Fatalf("valid args rejected")
	}
	if spec.Task != "build it" || spec.AgentKind != "code" || spec.MaxIterations != 7 {
		t.Errorf("spec = %+v", spec)
	}

	spec, ok = SubTaskSpecFromArgs(json.RawMessage(`{"task": "minimal"}`))
	if !ok {
		t.Fatalf("minimal args rejected")
	}
	if spec.AgentKind != "dynamic" || spec.MaxIterations != DefaultSubTaskIterations {
		t.Errorf("defaults not applied: %+v", spec)
	}

	if _, ok := SubTaskSpecFromArgs(json.RawMessage(`{"type": "code"}`)); ok {
		t.Errorf("args without task accepted")
	}
}

func TestArgumentHelpers(t *testing.T) {
	args, err := ParseToolArguments(json.RawMessage(`{"s": "text", "n": 4, "b": true}`))
	if err != nil {
		t.Fatalf("ParseToolArguments: %v", err)
	}
	if s, ok := GetStringArg(args, "s"); !ok || s != "text" {
		t.Errorf("GetStringArg = %q, %v", s, ok)
	}
	if n, ok := GetIntArg(args, "n"); !ok || n != 4 {
		t.Errorf("GetIntArg = %d, %v", n, ok)
	}
	if _, ok := GetStringArg(args, "n"); ok {
		t.Errorf("GetStringArg accepted a number")
	}
}
