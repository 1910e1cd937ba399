package engine

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"gofer/logging"
)

// Tag regions are case-sensitive and non-greedy, with . matching newlines.
var (
	toolCodeRe = regexp.MustCompile(`(?s)<tool_code>\s*(.*?)\s*</tool_code>`)
	parallelRe = regexp.MustCompile(`(?s)<parallel>\s*(.*?)\s*</parallel>`)
	finalRe    = regexp.MustCompile(`(?s)<final>\s*(.*?)\s*</final>`)
)

// DirectiveKind discriminates the instruction embedded in completion text.
type DirectiveKind string

const (
	DirectiveNone     DirectiveKind = "none"
	DirectiveToolCall DirectiveKind = "tool_call"
	DirectiveFinal    DirectiveKind = "final"
)

// ToolCall is a model-requested capability invocation.
type ToolCall struct {
	Name string
	Args json.RawMessage
}

// SubTaskSpec describes one sub-agent requested inside a <parallel> region.
type SubTaskSpec struct {
	Task          string
	AgentKind     string
	MaxIterations int
}

// DefaultSubTaskIterations is the iteration budget for a parallel task that
// does not specify max_loops.
const DefaultSubTaskIterations = 20

// Directive is the structured instruction extracted from one completion.
// A tool call found in the same completion as a <parallel> region carries
// the batch alongside it; a batch never occurs on its own.
type Directive struct {
	Kind  DirectiveKind
	Tool  *ToolCall
	Batch []SubTaskSpec
	Final string
}

// ParseDirective scans completion text for a directive. It is pure and
// total: every input yields exactly one directive and malformed payloads
// degrade to DirectiveNone with a diagnostic, never an error.
//
// A <tool_code> region takes precedence. If one is present but its payload
// does not deserialize, the whole result is DirectiveNone so the caller
// nudges the model instead of acting on a half-understood instruction.
// <final> is only consulted when no <tool_code> region exists, and an empty
// trimmed final is treated as absent because models sometimes emit a bare
// <final></final> before actually being done.
func ParseDirective(text string) Directive {
	if payload, present := tagContent(toolCodeRe, text); present {
		tool := parseToolCall(payload)
		if tool == nil {
			return Directive{Kind: DirectiveNone}
		}
		return Directive{Kind: DirectiveToolCall, Tool: tool, Batch: ParseParallelTasks(text)}
	}

	if final, present := tagContent(finalRe, text); present {
		final = strings.TrimSpace(final)
		if final == "" {
			return Directive{Kind: DirectiveNone}
		}
		return Directive{Kind: DirectiveFinal, Final: final}
	}

	return Directive{Kind: DirectiveNone}
}

func tagContent(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func parseToolCall(payload string) *ToolCall {
	var raw struct {
		Name string          `json:"name"`
		Args json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		logging.Error("tool call payload is not valid JSON", "err", err, "payload", payload)
		return nil
	}
	if raw.Name == "" {
		logging.Error("tool call payload missing name", "payload", payload)
		return nil
	}
	if len(raw.Args) == 0 {
		logging.Error("tool call payload missing args", "payload", payload)
		return nil
	}
	return &ToolCall{Name: raw.Name, Args: raw.Args}
}

// ParseParallelTasks extracts sub-task specs from a <parallel> region.
// Each balanced {...} object inside the region parses independently;
// objects without a usable task field are skipped, a missing type defaults
// to "dynamic" and a missing max_loops to DefaultSubTaskIterations. A nil
// return means no batch was requested.
func ParseParallelTasks(text string) []SubTaskSpec {
	inner, present := tagContent(parallelRe, text)
	if !present {
		return nil
	}

	var specs []SubTaskSpec
	for _, candidate := range scanJSONObjects(inner) {
		obj, err := unmarshalObject(candidate)
		if err != nil {
			logging.Debug("skipping unparseable parallel task", "err", err, "candidate", candidate)
			continue
		}
		task, ok := obj["task"].(string)
		if !ok {
			logging.Debug("skipping parallel task without task field", "candidate", candidate)
			continue
		}

		kind := "dynamic"
		if t, ok := obj["type"].(string); ok {
			kind = t
		}

		iterations := DefaultSubTaskIterations
		if v, ok := obj["max_loops"].(float64); ok && v >= 0 && v == math.Trunc(v) {
			iterations = int(v)
		}

		specs = append(specs, SubTaskSpec{Task: task, AgentKind: kind, MaxIterations: iterations})
	}
	return specs
}
