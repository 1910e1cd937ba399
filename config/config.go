// Package config loads gofer's YAML configuration and applies defaults.
// Precedence is flag > environment > file > default; flags are merged on
// top by the cli package.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MCPServer describes one MCP tool server launched as a child process.
type MCPServer struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// Config is the full application configuration.
type Config struct {
	Provider   string               `yaml:"provider"`
	Model      string               `yaml:"model"`
	APIKey     string               `yaml:"api_key"`
	SessionDir string               `yaml:"session_dir"`
	MaxLoops   int                  `yaml:"max_loops"`
	MaxTokens  int                  `yaml:"max_tokens"`
	LogLevel   string               `yaml:"log_level"`
	LogFile    string               `yaml:"log_file"`
	MCPServers map[string]MCPServer `yaml:"mcp_servers"`
	DisableMCP bool                 `yaml:"disable_mcp"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:   "anthropic",
		SessionDir: "__sessions",
		MaxLoops:   50,
		MaxTokens:  8192,
		LogLevel:   "info",
		LogFile:    "gofer.log",
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file
// is not an error when the path is the default location; an explicitly
// requested file must exist.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveAPIKey fills APIKey from the provider's conventional environment
// variable when the config and flags left it empty.
func (c *Config) ResolveAPIKey() {
	if c.APIKey != "" {
		return
	}
	if env := apiKeyEnvVar(c.Provider); env != "" {
		c.APIKey = os.Getenv(env)
	}
}

func apiKeyEnvVar(provider string) string {
	switch strings.ToLower(provider) {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	default:
		return ""
	}
}
