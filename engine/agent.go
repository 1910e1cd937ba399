package engine

import "sync"

// Status is the lifecycle state of an agent.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// CancelledReason is the failure reason recorded when a run is abandoned on
// a user interrupt.
const CancelledReason = "Cancelled by user"

// Agent is one conversation-driving state machine: a task, its own Store
// and an iteration budget. State transitions are Pending -> Running ->
// {Completed | Failed(reason)}; terminal states are never overwritten, so a
// racing cancel and a racing completion cannot tear the record.
//
// All field access goes through the record's mutex. The mutex is never held
// across an await: the loop body reads what it needs, releases, and only
// re-acquires to flip state.
type Agent struct {
	mu         sync.Mutex
	id         string
	task       string
	kind       string
	store      *Store
	status     Status
	failReason string
	result     string
	hasResult  bool

	maxIterations int
	iterations    int
}

// NewAgent creates an agent in Pending state bound to the given store.
// Orchestrator-spawned agents get generated ids; the top-level driver passes
// a fixed id and its own persistent store.
func NewAgent(id, task, kind string, store *Store, maxIterations int) *Agent {
	return &Agent{
		id:            id,
		task:          task,
		kind:          kind,
		store:         store,
		status:        StatusPending,
		maxIterations: maxIterations,
	}
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string { return a.id }

// Task returns the task description.
func (a *Agent) Task() string { return a.task }

// Kind returns the agent kind (code, test, doc, analysis, dynamic, ...).
func (a *Agent) Kind() string { return a.kind }

// Store returns the agent's conversation store.
func (a *Agent) Store() *Store { return a.store }

// MaxIterations returns the iteration budget.
func (a *Agent) MaxIterations() int { return a.maxIterations }

// Status returns the current state and, for Failed, the reason.
func (a *Agent) Status() (Status, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status, a.failReason
}

// Result returns the final answer, if the agent completed with one.
func (a *Agent) Result() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result, a.hasResult
}

// Iterations returns how many loop iterations have run.
func (a *Agent) Iterations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.iterations
}

func (a *Agent) nextIteration() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.iterations++
	return a.iterations
}

func (a *Agent) markRunning() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == StatusPending {
		a.status = StatusRunning
	}
}

// complete records a successful final answer. No-op if already terminal.
func (a *Agent) complete(result string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusPending && a.status != StatusRunning {
		return
	}
	a.status = StatusCompleted
	a.result = result
	a.hasResult = true
}

// fail transitions to Failed(reason) and clears any partial result. No-op
// if already terminal, which makes cancellation idempotent.
func (a *Agent) fail(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusPending && a.status != StatusRunning {
		return
	}
	a.status = StatusFailed
	a.failReason = reason
	a.result = ""
	a.hasResult = false
}
