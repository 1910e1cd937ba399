package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// fakeServerScript is a minimal MCP server: it answers the fixed request
// sequence the client issues (initialize=1, tools/list=2, tools/call=3).
const fakeServerScript = `
while IFS= read -r line; do
  case "$line" in
    *'"method":"initialize"'*)
      printf '%s\n' '{"jsonrpc":"2.0","id":1,"result":{"protocolVersion":"2024-11-05"}}' ;;
    *'"method":"notifications/initialized"'*) ;;
    *'"method":"tools/list"'*)
      printf '%s\n' '{"jsonrpc":"2.0","id":2,"result":{"tools":[{"name":"echo","description":"Echo text back","inputSchema":{"type":"object","properties":{"text":{"type":"string"}}}}]}}' ;;
    *'"method":"tools/call"'*)
      printf '%s\n' '{"jsonrpc":"2.0","id":3,"result":{"content":[{"type":"text","text":"echoed: hi"}]}}' ;;
  esac
done`

func TestClient_AgainstFakeServer(t *testing.T) {
	client, err := Connect(ServerConfig{
		Name:    "fake",
		Command: "bash",
		Args:    []string{"-c", fakeServerScript},
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tools, err := client.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "echo" {
		t.Fatalf("tools = %+v", tools)
	}

	out, err := client.CallTool(ctx, "echo", json.RawMessage(`{"text": "hi"}`))
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if out != "echoed: hi" {
		t.Errorf("output = %q", out)
	}
}

func TestConnect_BadCommand(t *testing.T) {
	if _, err := Connect(ServerConfig{Name: "bad", Command: "/no/such/binary"}); err == nil {
		t.Fatalf("expected spawn failure")
	}
}

func TestDecodeToolList(t *testing.T) {
	raw := json.RawMessage(`{"tools": [
		{"name": "a", "description": "first"},
		{"name": "", "description": "nameless"},
		{"name": "b", "description": "second", "inputSchema": {"type": "object"}}
	]}`)
	tools, err := decodeToolList(raw)
	if err != nil {
		t.Fatalf("decodeToolList: %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("got %d tools, want 2 (nameless skipped)", len(tools))
	}
	if tools[0].InputSchema == nil || tools[0].InputSchema["type"] != "object" {
		t.Errorf("missing schema not defaulted: %+v", tools[0].InputSchema)
	}

	if _, err := decodeToolList(json.RawMessage(`not json`)); err == nil {
		t.Errorf("expected decode error")
	}
}

func TestDecodeCallResult(t *testing.T) {
	text, isErr, err := decodeCallResult(json.RawMessage(
		`{"content": [{"type": "text", "text": "one"}, {"type": "text", "text": "two"}]}`))
	if err != nil || isErr {
		t.Fatalf("err = %v, isErr = %v", err, isErr)
	}
	if text != "one\ntwo" {
		t.Errorf("text = %q", text)
	}

	text, isErr, err = decodeCallResult(json.RawMessage(
		`{"isError": true, "content": [{"type": "text", "text": "boom"}]}`))
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !isErr || text != "boom" {
		t.Errorf("isErr = %v, text = %q", isErr, text)
	}

	// No text content: raw result is handed back for the model to read.
	text, _, err = decodeCallResult(json.RawMessage(`{"content": []}`))
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(text, "content") {
		t.Errorf("raw fallback missing: %q", text)
	}
}

func TestProxyTool_Naming(t *testing.T) {
	client := &Client{name: "files"}
	tool := NewProxyTool(client, ToolInfo{
		Name:        "read",
		Description: "Read a file",
		InputSchema: map[string]interface{}{"type": "object"},
	})
	if tool.Name() != "mcp.files.read" {
		t.Errorf("name = %q", tool.Name())
	}
	if tool.Description() != "[MCP:files] Read a file" {
		t.Errorf("description = %q", tool.Description())
	}
	if tool.Schema()["type"] != "object" {
		t.Errorf("schema = %+v", tool.Schema())
	}
}
