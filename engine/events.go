package engine

import (
	"sync"
	"time"
)

// EventKind identifies the type of engine event.
type EventKind string

const (
	EventAgentSpawned   EventKind = "agent_spawned"
	EventIterationStart EventKind = "iteration_start"
	EventCompletion     EventKind = "completion"
	EventToolStart      EventKind = "tool_start"
	EventToolEnd        EventKind = "tool_end"
	EventParallelStart  EventKind = "parallel_start"
	EventParallelEnd    EventKind = "parallel_end"
	EventAgentCompleted EventKind = "agent_completed"
	EventAgentFailed    EventKind = "agent_failed"
)

// Event is a typed lifecycle notification emitted by agent loops and the
// orchestrator, consumed by the host for user-facing progress output.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	AgentID   string                 `json:"agent_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Emitter delivers events to the host application via a buffered channel.
// Delivery is best-effort: when the buffer is full the event is dropped so
// a slow consumer can never stall an agent loop.
type Emitter struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewEmitter creates an Emitter with the given buffer size.
func NewEmitter(bufferSize int) *Emitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Emitter{ch: make(chan Event, bufferSize)}
}

// Emit sends an event. Dropped silently if the emitter is closed or full.
func (e *Emitter) Emit(kind EventKind, agentID string, data map[string]interface{}) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	ev := Event{Kind: kind, Timestamp: time.Now(), AgentID: agentID, Data: data}
	select {
	case e.ch <- ev:
	default:
	}
}

// Events returns the read-only event channel.
func (e *Emitter) Events() <-chan Event {
	return e.ch
}

// Close closes the event channel. Safe to call multiple times.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
