package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	basePrompt = "You are a helpful coding agent.\n\n"

	finalizeInstructions = "When you are finished, wrap the final answer in <final>...</final>.\n" +
		"If you need more steps and no tool call is required, continue until you are ready to finalize.\n\n"

	toolUsageExample = "To use a tool, ONLY output a JSON block wrapped in <tool_code> tags. " +
		"The JSON must be valid and directly deserializable. " +
		"Do not double-encode JSON strings or escape quotes inside JSON values.\n" +
		"Example:\n<tool_code>\n{\n  \"name\": \"bash\",\n  \"args\": {\n    \"command\": \"ls -la\"\n  }\n}\n</tool_code>\n" +
		"After the tool execution, you will receive the output. Then you can continue to answer the user's question.\n"
)

// SystemPrompt renders the top-level driver system prompt: base persona,
// finalization protocol and the instructions for every registered tool.
func SystemPrompt(reg *Registry) string {
	var sb strings.Builder
	sb.WriteString(basePrompt)
	sb.WriteString(finalizeInstructions)
	sb.WriteString(ToolInstructions(reg))
	return sb.String()
}

// ToolInstructions renders one section per registered tool with its schema
// embedded verbatim, followed by the tag-grammar usage example.
func ToolInstructions(reg *Registry) string {
	var sb strings.Builder
	sb.WriteString("You have access to the following tools:\n\n")
	for _, tool := range reg.List() {
		schema, err := json.Marshal(tool.Schema())
		if err != nil {
			schema = []byte("{}")
		}
		fmt.Fprintf(&sb, "## %s: %s\n", tool.Name(), tool.Description())
		fmt.Fprintf(&sb, "Schema: %s\n\n", schema)
	}
	sb.WriteString(toolUsageExample)
	return sb.String()
}

// KindPrompt returns the system prompt for a sub-agent kind. Unrecognized
// kinds fall back to the dynamic prompt.
func KindPrompt(kind string) string {
	switch strings.ToLower(kind) {
	case "code":
		return codeAgentPrompt
	case "test":
		return testAgentPrompt
	case "doc":
		return docAgentPrompt
	case "analysis":
		return analysisAgentPrompt
	default:
		return dynamicAgentPrompt
	}
}

const (
	codeAgentPrompt = "You are a Code SubAgent focused on code implementation, refactoring, and optimization.\n" +
		"Guidelines:\n" +
		"- Write clean, idiomatic code\n" +
		"- Follow existing code patterns and conventions\n" +
		"- Add comments for complex logic\n" +
		"- Consider edge cases and error handling\n" +
		"- Run tests to verify your changes\n\n" +
		"You have access to bash tool for running commands and testing."

	testAgentPrompt = "You are a Test SubAgent focused on writing and improving tests.\n" +
		"Guidelines:\n" +
		"- Write comprehensive unit tests\n" +
		"- Cover edge cases and error scenarios\n" +
		"- Use appropriate testing frameworks\n" +
		"- Ensure tests are fast and isolated\n" +
		"- Provide clear test documentation\n\n" +
		"You have access to bash tool for running tests."

	docAgentPrompt = "You are a Documentation SubAgent focused on creating and improving documentation.\n" +
		"Guidelines:\n" +
		"- Write clear, concise documentation\n" +
		"- Include code examples where appropriate\n" +
		"- Document public APIs thoroughly\n" +
		"- Keep documentation up-to-date with code changes\n" +
		"- Use markdown format for readability\n\n" +
		"You have access to bash tool for reading files and checking documentation."

	analysisAgentPrompt = "You are an Analysis SubAgent focused on understanding and analyzing codebases.\n" +
		"Guidelines:\n" +
		"- Analyze code structure and architecture\n" +
		"- Identify patterns and anti-patterns\n" +
		"- Provide insights on code quality\n" +
		"- Suggest improvements where needed\n" +
		"- Be thorough in your analysis\n\n" +
		"You have access to bash tool for exploring the codebase."

	dynamicAgentPrompt = "You are a general-purpose SubAgent.\n" +
		"Guidelines:\n" +
		"- Focus on completing the assigned task\n" +
		"- Ask for clarification if needed\n" +
		"- Provide clear, actionable results\n" +
		"- Report any errors or blockers encountered\n\n" +
		"You have access to bash tool for executing commands."
)

// subAgentSystemPrompt is the full system prompt injected into a spawned
// sub-agent's store: the kind prompt, the finalization protocol and the
// shared tool instructions.
func subAgentSystemPrompt(kind string, reg *Registry) string {
	var sb strings.Builder
	sb.WriteString(KindPrompt(kind))
	sb.WriteString("\n\n")
	sb.WriteString(finalizeInstructions)
	sb.WriteString(ToolInstructions(reg))
	return sb.String()
}
