package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Provider != "anthropic" {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if cfg.MaxLoops != 50 || cfg.MaxTokens != 8192 {
		t.Errorf("limits = %d/%d", cfg.MaxLoops, cfg.MaxTokens)
	}
	if cfg.SessionDir != "__sessions" {
		t.Errorf("session dir = %q", cfg.SessionDir)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gofer.yaml")
	content := []byte(`
provider: openai
model: gpt-4o
max_loops: 12
mcp_servers:
  files:
    command: mcp-files
    args: ["--root", "/tmp"]
    env:
      DEBUG: "1"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "openai" || cfg.Model != "gpt-4o" || cfg.MaxLoops != 12 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	// Untouched fields keep their defaults.
	if cfg.MaxTokens != 8192 || cfg.SessionDir != "__sessions" {
		t.Errorf("defaults lost: %+v", cfg)
	}

	server, ok := cfg.MCPServers["files"]
	if !ok {
		t.Fatalf("mcp server missing: %+v", cfg.MCPServers)
	}
	if server.Command != "mcp-files" || len(server.Args) != 2 || server.Env["DEBUG"] != "1" {
		t.Errorf("mcp server = %+v", server)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	if _, err := Load(missing, false); err != nil {
		t.Errorf("default-location miss must not error: %v", err)
	}
	if _, err := Load(missing, true); err == nil {
		t.Errorf("explicitly requested file must exist")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("provider: [unclosed"), 0o644)
	if _, err := Load(path, true); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	cfg := Default()
	cfg.ResolveAPIKey()
	if cfg.APIKey != "from-env" {
		t.Errorf("api key = %q, want env value", cfg.APIKey)
	}

	cfg = Default()
	cfg.APIKey = "explicit"
	cfg.ResolveAPIKey()
	if cfg.APIKey != "explicit" {
		t.Errorf("explicit key overwritten: %q", cfg.APIKey)
	}

	cfg = Default()
	cfg.Provider = "unknown-provider"
	cfg.APIKey = ""
	cfg.ResolveAPIKey()
	if cfg.APIKey != "" {
		t.Errorf("unexpected key for unknown provider: %q", cfg.APIKey)
	}
}
