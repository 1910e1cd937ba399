// Package cli wires configuration, logging, the model client, tools and
// the orchestrator into the interactive gofer shell.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gofer/config"
	"gofer/engine"
	"gofer/llm"
	"gofer/logging"
	"gofer/mcp"
	"gofer/session"
)

const defaultConfigPath = "gofer.yaml"

var rootCmd = &cobra.Command{
	Use:           "gofer",
	Short:         "An agentic coding assistant driven by an LLM",
	Long:          "gofer drives an LLM conversation in rounds, executing embedded tool calls,\nparallel sub-agent batches and final answers until the task is done.",
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", defaultConfigPath, "Path to the YAML config file")
	f.String("provider", "", "LLM provider (anthropic, openai, groq, mistral, ollama)")
	f.String("model", "", "Model name")
	f.String("api-key", "", "API key (falls back to the provider's env var)")
	f.String("session-dir", "", "Session storage directory")
	f.Int("max-loops", 0, "Maximum agent loop iterations per input")
	f.Int("max-tokens", 0, "Context token budget before compaction")
	f.String("log-level", "", "Log level (debug, info, warn, error)")
	f.String("log-file", "", "Log file path")
	f.Bool("disable-mcp", false, "Skip MCP tool servers")
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if err := logging.EnableFile(cfg.LogFile, logging.Level(cfg.LogLevel)); err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logging.Close()

	client, err := llm.New(llm.Options{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return err
	}

	tools := engine.NewRegistry()
	tools.Register(engine.BashTool{})
	tools.Register(engine.SubAgentTool{})

	if !cfg.DisableMCP && len(cfg.MCPServers) > 0 {
		clients := mcp.RegisterTools(tools, mcpServerConfigs(cfg))
		defer func() {
			for _, c := range clients {
				c.Close()
			}
		}()
	}

	sessions, err := session.NewStore(cfg.SessionDir)
	if err != nil {
		return err
	}

	events := engine.NewEmitter(256)
	orch := engine.NewOrchestrator(client, llm.NewSummarizer(client), tools,
		engine.WithEmitter(events),
		engine.WithStoreThreshold(cfg.MaxTokens),
	)

	repl := NewREPL(cfg, orch, tools, sessions, engine.NewInterrupts(), events, os.Stdin, os.Stdout)
	return repl.Run()
}

// resolveConfig loads the YAML file and lays changed flags on top:
// flag > env > file > default.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, err := config.Load(path, f.Changed("config"))
	if err != nil {
		return cfg, err
	}

	if f.Changed("provider") {
		cfg.Provider, _ = f.GetString("provider")
	}
	if f.Changed("model") {
		cfg.Model, _ = f.GetString("model")
	}
	if f.Changed("api-key") {
		cfg.APIKey, _ = f.GetString("api-key")
	}
	if f.Changed("session-dir") {
		cfg.SessionDir, _ = f.GetString("session-dir")
	}
	if f.Changed("max-loops") {
		cfg.MaxLoops, _ = f.GetInt("max-loops")
	}
	if f.Changed("max-tokens") {
		cfg.MaxTokens, _ = f.GetInt("max-tokens")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("log-file") {
		cfg.LogFile, _ = f.GetString("log-file")
	}
	if f.Changed("disable-mcp") {
		cfg.DisableMCP, _ = f.GetBool("disable-mcp")
	}

	cfg.ResolveAPIKey()
	return cfg, nil
}

func mcpServerConfigs(cfg config.Config) []mcp.ServerConfig {
	servers := make([]mcp.ServerConfig, 0, len(cfg.MCPServers))
	for name, s := range cfg.MCPServers {
		servers = append(servers, mcp.ServerConfig{
			Name:    name,
			Command: s.Command,
			Args:    s.Args,
			Env:     s.Env,
		})
	}
	return servers
}
