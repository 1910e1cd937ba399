package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"gofer/logging"
)

// Orchestrator owns the registry of spawned agents and their concurrent
// lifecycle: spawn, parallel join, cancel. It is re-entrant by construction:
// no lock is held across an await, so a sub-agent requesting its own
// parallel batch cannot deadlock the registry.
type Orchestrator struct {
	mu     sync.RWMutex
	agents map[string]*Agent

	model      Model
	summarizer Summarizer
	tools      *Registry
	events     *Emitter

	// storeThreshold is the token budget given to each spawned agent's
	// conversation store.
	storeThreshold int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithEmitter attaches an event emitter for lifecycle notifications.
func WithEmitter(e *Emitter) OrchestratorOption {
	return func(o *Orchestrator) { o.events = e }
}

// WithStoreThreshold overrides the per-agent context token budget.
func WithStoreThreshold(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.storeThreshold = n }
}

// defaultStoreThreshold is the context token budget for spawned sub-agents.
const defaultStoreThreshold = 8192

// NewOrchestrator creates an Orchestrator sharing one model, summarizer and
// tool registry across all agents it spawns.
func NewOrchestrator(model Model, summarizer Summarizer, tools *Registry, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		agents:         make(map[string]*Agent),
		model:          model,
		summarizer:     summarizer,
		tools:          tools,
		storeThreshold: defaultStoreThreshold,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) emit(kind EventKind, agentID string, data map[string]interface{}) {
	if o == nil || o.events == nil {
		return
	}
	o.events.Emit(kind, agentID, data)
}

// newAgentID returns a short unique identifier: the first segment of a
// fresh uuid, readable in logs and conversation text.
func newAgentID() string {
	return strings.SplitN(uuid.New().String(), "-", 2)[0]
}

// Spawn constructs an agent record, primes its store with the kind-specific
// system prompt plus the shared tool instructions, and registers it under a
// fresh id. The agent is left in Pending state; the caller decides when and
// where to run it.
func (o *Orchestrator) Spawn(task, kind string, maxIterations int) (string, error) {
	if strings.TrimSpace(task) == "" {
		return "", fmt.Errorf("spawn: task must not be empty")
	}
	if maxIterations <= 0 {
		maxIterations = DefaultSubTaskIterations
	}

	store := NewStore(o.storeThreshold)
	store.InjectSystem(subAgentSystemPrompt(kind, o.tools))

	agent := NewAgent(newAgentID(), task, kind, store, maxIterations)

	o.mu.Lock()
	o.agents[agent.id] = agent
	o.mu.Unlock()

	o.emit(EventAgentSpawned, agent.id, map[string]interface{}{"kind": kind, "task": task})
	logging.Info("subagent spawned", "id", agent.id, "kind", kind, "max_iterations", maxIterations)
	return agent.id, nil
}

// Get returns the agent registered under id, or nil. The returned handle
// serializes all record access through its own mutex; cancelled and
// completed records remain queryable.
func (o *Orchestrator) Get(id string) *Agent {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.agents[id]
}

// IDs returns the ids of all registered agents.
func (o *Orchestrator) IDs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ids := make([]string, 0, len(o.agents))
	for id := range o.agents {
		ids = append(ids, id)
	}
	return ids
}

// Cancel transitions a Pending or Running agent to Failed(reason) and
// clears any partial result. Cancelling a terminal or unknown record is a
// no-op.
func (o *Orchestrator) Cancel(id, reason string) {
	agent := o.Get(id)
	if agent == nil {
		return
	}
	agent.fail(reason)
}

// RunTask spawns a single sub-agent and runs it to completion, racing the
// join against the interrupt. Used for direct subagent tool calls; the
// returned text is a tool-style result line for the parent conversation.
// interrupted reports that the join lost the interrupt race: the child task
// is abandoned and its record cancelled.
func (o *Orchestrator) RunTask(ctx context.Context, spec SubTaskSpec, sub *Subscription) (result string, interrupted bool) {
	id, err := o.Spawn(spec.Task, spec.AgentKind, spec.MaxIterations)
	if err != nil {
		return fmt.Sprintf("SubAgent [%s] failed to spawn: %v", spec.AgentKind, err), false
	}
	agent := o.Get(id)

	type outcome struct {
		text string
		err  error
	}
	ch := make(chan outcome, 1)
	childSub := sub.Clone()
	go func() {
		text, err := agent.Run(ctx, o, childSub)
		ch <- outcome{text, err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return fmt.Sprintf("SubAgent [%s] failed: %v", spec.AgentKind, out.err), false
		}
		return fmt.Sprintf("SubAgent [%s] completed:\n%s", spec.AgentKind, out.text), false
	case <-sub.Done():
		o.Cancel(id, CancelledReason)
		return fmt.Sprintf("SubAgent [%s] cancelled by user", spec.AgentKind), true
	}
}

// RunParallel spawns one agent per spec and runs them concurrently, joining
// outcomes in completion order (explicitly not submission order). A spawn
// failure contributes an error-labeled entry without aborting the batch, so
// the result count always equals the task count. An interrupt abandons all
// outstanding tasks, cancels their records and synthesizes CANCELLED lines.
func (o *Orchestrator) RunParallel(ctx context.Context, batch []SubTaskSpec, sub *Subscription) []string {
	if len(batch) == 0 {
		return nil
	}
	logging.Info("parallel batch", "tasks", len(batch))

	type outcome struct {
		id   string
		spec SubTaskSpec
		text string
		err  error
	}
	ch := make(chan outcome, len(batch))
	pending := make(map[string]SubTaskSpec, len(batch))

	var results []string
	for _, spec := range batch {
		id, err := o.Spawn(spec.Task, spec.AgentKind, spec.MaxIterations)
		if err != nil {
			results = append(results, fmt.Sprintf("[%s] ERROR: %s - %v", spec.AgentKind, spec.Task, err))
			continue
		}
		agent := o.Get(id)
		pending[id] = spec

		childSub := sub.Clone()
		go func(agent *Agent, spec SubTaskSpec, id string) {
			text, err := agent.Run(ctx, o, childSub)
			ch <- outcome{id: id, spec: spec, text: text, err: err}
		}(agent, spec, id)
	}

	for len(pending) > 0 {
		select {
		case out := <-ch:
			delete(pending, out.id)
			if out.err != nil {
				results = append(results, fmt.Sprintf("[%s] ERROR: %s - %v", out.spec.AgentKind, out.spec.Task, out.err))
			} else {
				results = append(results, fmt.Sprintf("[%s] Task: %s\nResult: %s", out.spec.AgentKind, out.spec.Task, out.text))
			}
		case <-sub.Done():
			for id, spec := range pending {
				o.Cancel(id, CancelledReason)
				results = append(results, fmt.Sprintf("[%s] CANCELLED: %s", spec.AgentKind, spec.Task))
			}
			logging.Warn("parallel batch cancelled", "outstanding", len(pending))
			return results
		}
	}
	return results
}
