package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"gofer/config"
	"gofer/engine"
	"gofer/logging"
	"gofer/session"
)

// driverAgentID is the fixed id of the top-level agent loop, used to tell
// its events apart from sub-agent events.
const driverAgentID = "driver"

// REPL is the interactive line shell driving the top-level agent loop.
// Slash-prefixed lines are out-of-band commands handled before any model
// round-trip; everything else becomes a driver message.
type REPL struct {
	cfg        config.Config
	orch       *engine.Orchestrator
	tools      *engine.Registry
	sessions   *session.Store
	interrupts *engine.Interrupts
	events     *engine.Emitter
	store      *engine.Store

	in   io.Reader
	out  io.Writer
	busy atomic.Bool
}

// NewREPL assembles the shell around a fresh conversation store.
func NewREPL(cfg config.Config, orch *engine.Orchestrator, tools *engine.Registry, sessions *session.Store, interrupts *engine.Interrupts, events *engine.Emitter, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		cfg:        cfg,
		orch:       orch,
		tools:      tools,
		sessions:   sessions,
		interrupts: interrupts,
		events:     events,
		store:      engine.NewStore(cfg.MaxTokens),
		in:         in,
		out:        out,
	}
}

// Run reads lines until quit or EOF. A SIGINT while an agent is running
// bumps the interrupt generation; while idle it exits the shell.
func (r *REPL) Run() error {
	r.store.InjectSystem(engine.SystemPrompt(r.tools))

	if r.events != nil {
		go r.printEvents()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			r.interrupts.Notify()
			if r.busy.Load() {
				fmt.Fprintln(r.out, "CTRL-C")
				continue
			}
			fmt.Fprintln(r.out, "\nBye")
			os.Exit(0)
		}
	}()

	fmt.Fprintln(r.out, "gofer - type /help for commands")
	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, ">> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.handleCommand(line); quit {
				break
			}
			continue
		}
		r.runTurn(line)
	}
	return scanner.Err()
}

// runTurn feeds one user input through the top-level agent loop. Failures
// print and the shell continues; a fresh subscription per turn means an
// interrupt consumed by a previous turn never leaks into this one.
func (r *REPL) runTurn(input string) {
	sub := r.interrupts.Subscribe()
	r.busy.Store(true)
	defer r.busy.Store(false)

	agent := engine.NewAgent(driverAgentID, input, "driver", r.store, r.cfg.MaxLoops)
	_, err := agent.Run(context.Background(), r.orch, sub)
	switch {
	case err == nil:
		// The final answer already printed through the completion event.
	case engine.IsCancelled(err):
		fmt.Fprintln(r.out, "Cancelled.")
	default:
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
}

// handleCommand dispatches a slash command. Returns true to quit.
func (r *REPL) handleCommand(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Fprintln(r.out, "Commands:")
		fmt.Fprintln(r.out, "  /save [id] - Save session")
		fmt.Fprintln(r.out, "  /load <id> - Load session")
		fmt.Fprintln(r.out, "  /list      - List sessions")
		fmt.Fprintln(r.out, "  /clear     - Clear context")
		fmt.Fprintln(r.out, "  /tools     - List tools")
		fmt.Fprintln(r.out, "  /quit      - Exit")

	case "/save":
		id := ""
		if len(fields) > 1 {
			id = fields[1]
		} else {
			id = strings.SplitN(uuid.New().String(), "-", 2)[0]
		}
		if err := r.sessions.Save(id, r.store.Snapshot()); err != nil {
			fmt.Fprintf(r.out, "Error saving session: %v\n", err)
			break
		}
		fmt.Fprintf(r.out, "Session saved as: %s\n", id)

	case "/load":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "Usage: /load <id>")
			break
		}
		data, err := r.sessions.Load(fields[1])
		if err != nil {
			fmt.Fprintf(r.out, "Error loading session: %v\n", err)
			break
		}
		r.store.Restore(data.Messages)
		// Re-prime so the prompt reflects the currently registered tools.
		r.store.InjectSystem(engine.SystemPrompt(r.tools))
		fmt.Fprintln(r.out, "Session loaded")

	case "/list":
		ids, err := r.sessions.List()
		if err != nil {
			fmt.Fprintf(r.out, "Error listing sessions: %v\n", err)
			break
		}
		if len(ids) == 0 {
			fmt.Fprintln(r.out, "No saved sessions")
			break
		}
		for _, id := range ids {
			fmt.Fprintf(r.out, "- %s\n", id)
		}

	case "/clear":
		r.store.Reset()
		r.store.InjectSystem(engine.SystemPrompt(r.tools))
		fmt.Fprintln(r.out, "Context cleared")

	case "/tools":
		for _, tool := range r.tools.List() {
			fmt.Fprintf(r.out, "- %s: %s\n", tool.Name(), tool.Description())
		}

	default:
		fmt.Fprintln(r.out, "Unknown command. Type /help")
	}
	return false
}

// printEvents renders engine events as progress lines. Driver completions
// print in full; sub-agent lifecycle prints as short notices.
func (r *REPL) printEvents() {
	for ev := range r.events.Events() {
		switch ev.Kind {
		case engine.EventCompletion:
			if ev.AgentID == driverAgentID {
				fmt.Fprintf(r.out, "%s\n\n", ev.Data["text"])
			}
		case engine.EventToolStart:
			if ev.AgentID == driverAgentID {
				fmt.Fprintf(r.out, ">> Executing tool: %s...\n", ev.Data["tool"])
			}
		case engine.EventToolEnd:
			if ev.AgentID == driverAgentID {
				fmt.Fprintf(r.out, ">> Tool output:\n%s\n", ev.Data["output"])
			}
		case engine.EventAgentSpawned:
			fmt.Fprintf(r.out, ">> SubAgent %s spawned (%s)\n", ev.AgentID, ev.Data["kind"])
		case engine.EventAgentCompleted:
			if ev.AgentID != driverAgentID {
				fmt.Fprintf(r.out, ">> SubAgent %s completed\n", ev.AgentID)
			}
		case engine.EventAgentFailed:
			if ev.AgentID != driverAgentID {
				logging.Debug("subagent failed", "id", ev.AgentID, "data", ev.Data)
				fmt.Fprintf(r.out, ">> SubAgent %s failed\n", ev.AgentID)
			}
		}
	}
}
