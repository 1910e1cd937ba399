// Package mcp speaks JSON-RPC 2.0 to Model Context Protocol tool servers
// over child-process stdio and exposes their tools to the engine.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"gofer/logging"
)

const protocolVersion = "2024-11-05"

// ServerConfig describes one MCP server child process.
type ServerConfig struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
}

// ToolInfo is one tool advertised by a server.
type ToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  interface{}     `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client is a connection to one MCP server. Requests are matched to
// responses by id through a pending map fed by a single reader goroutine,
// so concurrent tool calls multiplex over the one stdio pipe.
type Client struct {
	name  string
	cmd   *exec.Cmd
	stdin io.WriteCloser

	writeMu sync.Mutex

	nextID    int64
	pendingMu sync.Mutex
	pending   map[int64]chan *rpcMessage

	closeOnce sync.Once
}

// Connect spawns the server process and performs the initialize handshake.
func Connect(cfg ServerConfig) (*Client, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp %s: stdin pipe: %w", cfg.Name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp %s: stdout pipe: %w", cfg.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("mcp %s: spawn %s: %w", cfg.Name, cfg.Command, err)
	}

	c := &Client{
		name:    cfg.Name,
		cmd:     cmd,
		stdin:   stdin,
		pending: make(map[int64]chan *rpcMessage),
	}
	go c.readLoop(stdout)

	if err := c.initialize(); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp %s: initialize: %w", cfg.Name, err)
	}
	logging.Info("mcp server connected", "server", cfg.Name, "command", cfg.Command)
	return c, nil
}

// Name returns the configured server name.
func (c *Client) Name() string { return c.name }

func (c *Client) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg rpcMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			logging.Warn("mcp parse error", "server", c.name, "err", err)
			continue
		}
		if msg.ID == nil {
			logging.Debug("mcp notification ignored", "server", c.name, "method", msg.Method)
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[*msg.ID]
		if ok {
			delete(c.pending, *msg.ID)
		}
		c.pendingMu.Unlock()

		if !ok {
			logging.Debug("mcp response for unknown request", "server", c.name, "id", *msg.ID)
			continue
		}
		ch <- &msg
	}

	// Server went away: fail everything still outstanding.
	c.pendingMu.Lock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
	c.pendingMu.Unlock()
}

func (c *Client) send(msg rpcMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.stdin.Write(raw)
	return err
}

func (c *Client) request(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	id := atomic.AddInt64(&c.nextID, 1)
	ch := make(chan *rpcMessage, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.send(rpcMessage{JSONRPC: "2.0", ID: &id, Method: method, Params: params}); err != nil {
		return nil, fmt.Errorf("mcp %s: send %s: %w", c.name, method, err)
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("mcp %s: server closed during %s", c.name, method)
		}
		if msg.Error != nil {
			return nil, fmt.Errorf("mcp %s: %s: %w", c.name, method, msg.Error)
		}
		return msg.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) notify(method string, params interface{}) error {
	return c.send(rpcMessage{JSONRPC: "2.0", Method: method, Params: params})
}

func (c *Client) initialize() error {
	params := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo": map[string]interface{}{
			"name":    "gofer",
			"version": "0.1.0",
		},
	}
	if _, err := c.request(context.Background(), "initialize", params); err != nil {
		return err
	}
	return c.notify("notifications/initialized", map[string]interface{}{})
}

// ListTools asks the server for its tool catalogue.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	result, err := c.request(ctx, "tools/list", map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	return decodeToolList(result)
}

// CallTool invokes a named tool and returns its textual content. A result
// flagged isError comes back as a Go error carrying the same text.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	result, err := c.request(ctx, "tools/call", params)
	if err != nil {
		return "", err
	}
	text, isErr, err := decodeCallResult(result)
	if err != nil {
		return "", fmt.Errorf("mcp %s: tools/call %s: %w", c.name, name, err)
	}
	if isErr {
		return "", fmt.Errorf("mcp tool error: %s", text)
	}
	return text, nil
}

// Close terminates the server process.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.stdin.Close()
		if c.cmd.Process != nil {
			err = c.cmd.Process.Kill()
		}
		go c.cmd.Wait()
	})
	return err
}

func decodeToolList(result json.RawMessage) ([]ToolInfo, error) {
	var payload struct {
		Tools []ToolInfo `json:"tools"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("decode tools/list: %w", err)
	}
	tools := payload.Tools[:0]
	for _, t := range payload.Tools {
		if t.Name == "" {
			continue
		}
		if t.InputSchema == nil {
			t.InputSchema = map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			}
		}
		tools = append(tools, t)
	}
	return tools, nil
}

func decodeCallResult(result json.RawMessage) (text string, isError bool, err error) {
	var payload struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return "", false, err
	}

	var parts []string
	for _, item := range payload.Content {
		if item.Type == "text" && item.Text != "" {
			parts = append(parts, item.Text)
		}
	}
	if len(parts) == 0 {
		// No text content: hand back the raw result for the model to read.
		return string(result), payload.IsError, nil
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "\n" + p
	}
	return out, payload.IsError, nil
}
