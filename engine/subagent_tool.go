package engine

import (
	"context"
	"encoding/json"
)

// SubAgentToolName is the tool name the agent loop intercepts and routes to
// the Orchestrator instead of dispatching through the registry.
const SubAgentToolName = "subagent"

// SubAgentTool advertises the sub-agent capability to the model. It exists
// for its name, description and schema; actual execution is handled by the
// loop, which hands intercepted calls to the Orchestrator so they run under
// the shared interrupt signal.
type SubAgentTool struct{}

func (SubAgentTool) Name() string { return SubAgentToolName }

func (SubAgentTool) Description() string {
	return "Spawn a new subagent to handle a specific task (parallel execution supported)"
}

func (SubAgentTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task": map[string]interface{}{
				"type":        "string",
				"description": "The task description for the subagent",
			},
			"type": map[string]interface{}{
				"type":        "string",
				"description": "SubAgent type: code, test, doc, analysis, or dynamic (default)",
			},
			"max_loops": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum loop iterations (default: 20)",
			},
		},
		"required": []string{"task"},
	}
}

func (SubAgentTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	// Reached only when no Orchestrator is wired in.
	return "SubAgent execution requires an orchestrator", nil
}

// SubTaskSpecFromArgs builds a SubTaskSpec from subagent tool arguments,
// applying the same defaults as the parallel-task parser.
func SubTaskSpecFromArgs(args json.RawMessage) (SubTaskSpec, bool) {
	parsed, err := ParseToolArguments(args)
	if err != nil {
		return SubTaskSpec{}, false
	}
	task, ok := GetStringArg(parsed, "task")
	if !ok || task == "" {
		return SubTaskSpec{}, false
	}
	kind := "dynamic"
	if t, ok := GetStringArg(parsed, "type"); ok && t != "" {
		kind = t
	}
	iterations := DefaultSubTaskIterations
	if n, ok := GetIntArg(parsed, "max_loops"); ok && n > 0 {
		iterations = n
	}
	return SubTaskSpec{Task: task, AgentKind: kind, MaxIterations: iterations}, true
}
