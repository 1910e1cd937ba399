// Package engine implements the agentic execution core: it drives an LLM
// conversation through repeated rounds of complete, parse, execute, append
// until the model emits a final answer or a terminal condition is reached.
//
// # Architecture
//
// The package is organized around these core concepts:
//
//   - Store: The ordered conversation log with lossy compaction once the
//     estimated token count exceeds its budget.
//   - Directive: The structured instruction (tool call, parallel batch,
//     final answer) extracted from otherwise unstructured completion text.
//   - Agent: The per-conversation state machine running the request, parse,
//     execute, continue loop against one Store.
//   - Orchestrator: The registry of concurrently running agents; spawns,
//     parallel-joins and cancels them.
//   - Interrupts: A broadcast generation counter raced against every
//     suspension point for cooperative cancellation.
//
// # Quick Start
//
//	tools := engine.NewRegistry()
//	tools.Register(engine.BashTool{})
//	orch := engine.NewOrchestrator(model, summarizer, tools)
//
//	store := engine.NewStore(8192)
//	store.InjectSystem(engine.SystemPrompt(tools))
//	agent := engine.NewAgent("driver", "list the files here", "dynamic", store, 50)
//
//	answer, err := agent.Run(ctx, orch, interrupts.Subscribe())
package engine
