package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"gofer/engine"
	"gofer/logging"
)

// ProxyTool exposes one server-side MCP tool through the engine's Tool
// interface under the namespaced name mcp.SERVER.TOOL.
type ProxyTool struct {
	fullName    string
	description string
	info        ToolInfo
	client      *Client
}

// NewProxyTool wraps an advertised tool from the given client.
func NewProxyTool(client *Client, info ToolInfo) *ProxyTool {
	return &ProxyTool{
		fullName:    fmt.Sprintf("mcp.%s.%s", client.Name(), info.Name),
		description: fmt.Sprintf("[MCP:%s] %s", client.Name(), info.Description),
		info:        info,
		client:      client,
	}
}

func (t *ProxyTool) Name() string                   { return t.fullName }
func (t *ProxyTool) Description() string            { return t.description }
func (t *ProxyTool) Schema() map[string]interface{} { return t.info.InputSchema }

func (t *ProxyTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	return t.client.CallTool(ctx, t.info.Name, args)
}

// RegisterTools connects every configured server, registers a ProxyTool per
// advertised tool and returns the live clients for shutdown. A server that
// fails to connect or list is logged and skipped; siblings still register.
func RegisterTools(reg *engine.Registry, servers []ServerConfig) []*Client {
	var clients []*Client
	for _, cfg := range servers {
		client, err := Connect(cfg)
		if err != nil {
			logging.Error("mcp server connect failed", "server", cfg.Name, "err", err)
			continue
		}
		tools, err := client.ListTools(context.Background())
		if err != nil {
			logging.Error("mcp server list tools failed", "server", cfg.Name, "err", err)
			client.Close()
			continue
		}
		for _, info := range tools {
			reg.Register(NewProxyTool(client, info))
		}
		logging.Info("mcp tools registered", "server", cfg.Name, "tools", len(tools))
		clients = append(clients, client)
	}
	return clients
}
