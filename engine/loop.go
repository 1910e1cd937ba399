package engine

import (
	"context"
	"fmt"
	"strings"

	"gofer/logging"
)

// Model is the completion capability. Implementations must tolerate a
// system message at index 0 or none at all. Errors are opaque; the engine
// surfaces them into the conversation and never retries.
type Model interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
}

// nudgeMessage is appended when a completion carries no directive, to push
// the model toward either more work or an explicit final answer.
const nudgeMessage = "Continue. If finished, wrap the final answer in <final>...</final>."

// Run drives the agent loop to a terminal state: request a completion,
// extract the directive, execute it, decide continuation. The only success
// exit is a FinalAnswer directive; the error exits are cancellation and an
// exhausted iteration budget.
//
// Every suspension point (model completion, tool call, batch join) is raced
// against sub; a nil sub never fires. Losing an interrupt race abandons the
// in-flight operation rather than awaiting it.
func (a *Agent) Run(ctx context.Context, o *Orchestrator, sub *Subscription) (string, error) {
	a.store.Append(UserMessage(a.task))
	a.markRunning()
	logging.Info("agent started", "id", a.id, "kind", a.kind, "max_iterations", a.maxIterations)

	for {
		iteration := a.nextIteration()
		o.emit(EventIterationStart, a.id, map[string]interface{}{"iteration": iteration})
		logging.Debug("agent iteration", "id", a.id, "n", iteration, "max", a.maxIterations)

		completion, interrupted, err := race(sub, func() (string, error) {
			return o.model.Complete(ctx, a.store.Snapshot())
		})
		if interrupted {
			return "", a.cancelled()
		}
		if err != nil {
			// Capability failure: surface into the conversation and keep
			// looping; the iteration budget bounds repeated failures.
			logging.Warn("model completion failed", "id", a.id, "err", err)
			a.store.Append(UserMessage(fmt.Sprintf("Error: %v", err)))
			if done, ferr := a.checkIterationBudget(iteration); done {
				return "", ferr
			}
			continue
		}

		a.store.Append(AssistantMessage(completion))
		o.emit(EventCompletion, a.id, map[string]interface{}{"text": completion})

		directive := ParseDirective(completion)
		switch directive.Kind {
		case DirectiveToolCall:
			if interrupted, err := a.executeToolCall(ctx, o, sub, directive); interrupted {
				return "", err
			}

		case DirectiveFinal:
			a.store.Append(AssistantMessage(directive.Final))
			a.complete(directive.Final)
			o.emit(EventAgentCompleted, a.id, nil)
			logging.Info("agent completed", "id", a.id, "iterations", iteration)
			return directive.Final, nil

		case DirectiveNone:
			if done, err := a.checkIterationBudget(iteration); done {
				o.emit(EventAgentFailed, a.id, map[string]interface{}{"reason": "max iterations reached"})
				return "", err
			}
			a.store.Append(UserMessage(nudgeMessage))
		}

		if err := a.store.Compact(ctx, o.summarizer); err != nil {
			logging.Debug("context compaction failed", "id", a.id, "err", err)
		}
	}
}

// executeToolCall dispatches the tool-call directive and, when a parallel
// batch rode along in the same completion, hands it to the orchestrator.
// The returned bool reports an interrupt: no tool-result message is
// appended for an abandoned call.
func (a *Agent) executeToolCall(ctx context.Context, o *Orchestrator, sub *Subscription, d Directive) (bool, error) {
	call := d.Tool
	o.emit(EventToolStart, a.id, map[string]interface{}{"tool": call.Name})
	logging.Info("tool call", "id", a.id, "tool", call.Name)

	var output string
	if call.Name == SubAgentToolName {
		// Sub-agent calls route through the orchestrator so the child runs
		// under the shared interrupt signal.
		if spec, ok := SubTaskSpecFromArgs(call.Args); ok {
			var interrupted bool
			output, interrupted = o.RunTask(ctx, spec, sub)
			if interrupted {
				return true, a.cancelled()
			}
		} else {
			output = "Error: Missing 'task' argument for subagent"
		}
	} else if tool, ok := o.tools.Get(call.Name); ok {
		result, interrupted, err := race(sub, func() (string, error) {
			return tool.Call(ctx, call.Args)
		})
		if interrupted {
			return true, a.cancelled()
		}
		if err != nil {
			logging.Warn("tool error", "id", a.id, "tool", call.Name, "err", err)
			result = fmt.Sprintf("Error: %v", err)
		}
		output = result
	} else {
		output = fmt.Sprintf("Tool '%s' not found", call.Name)
	}

	o.emit(EventToolEnd, a.id, map[string]interface{}{"tool": call.Name, "output": output})
	a.store.Append(UserMessage(fmt.Sprintf("Tool '%s' output:\n%s", call.Name, output)))

	if len(d.Batch) > 0 {
		o.emit(EventParallelStart, a.id, map[string]interface{}{"tasks": len(d.Batch)})
		results := o.RunParallel(ctx, d.Batch, sub)
		o.emit(EventParallelEnd, a.id, map[string]interface{}{"results": len(results)})
		a.store.Append(UserMessage("Parallel tasks results:\n" + strings.Join(results, "\n---\n")))
	}
	return false, nil
}

// checkIterationBudget fails the agent once the budget is exhausted.
func (a *Agent) checkIterationBudget(iteration int) (bool, error) {
	if iteration < a.maxIterations {
		return false, nil
	}
	a.fail("Max loops reached")
	logging.Warn("agent failed: max iterations reached", "id", a.id, "limit", a.maxIterations)
	return true, &MaxIterationsError{AgentID: a.id, Limit: a.maxIterations}
}

// cancelled records the interrupt-driven failure and builds its error.
func (a *Agent) cancelled() error {
	a.fail(CancelledReason)
	logging.Warn("agent cancelled by user", "id", a.id)
	return &CancelledError{AgentID: a.id, Reason: CancelledReason}
}

// race runs fn on its own goroutine and waits for whichever finishes first:
// fn or an interrupt. The result channel is buffered so an abandoned fn can
// still deposit its result and exit; the result is simply discarded.
func race(sub *Subscription, fn func() (string, error)) (text string, interrupted bool, err error) {
	type outcome struct {
		text string
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		t, e := fn()
		ch <- outcome{t, e}
	}()
	select {
	case out := <-ch:
		return out.text, false, out.err
	case <-sub.Done():
		return "", true, nil
	}
}
