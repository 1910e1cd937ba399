package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// BashTool executes shell commands via bash -c. A non-zero exit is reported
// as textual output rather than an error so the model can read the failure
// and react.
type BashTool struct{}

func (BashTool) Name() string { return "bash" }

func (BashTool) Description() string { return "Execute a bash command" }

func (BashTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "The command to execute",
			},
		},
		"required": []string{"command"},
	}
}

func (BashTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	parsed, err := ParseToolArguments(args)
	if err != nil {
		return "", err
	}
	command, ok := GetStringArg(parsed, "command")
	if !ok || command == "" {
		return "", fmt.Errorf("missing command argument")
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return "", fmt.Errorf("bash execution failed: %w", err)
		}
		return fmt.Sprintf("Error: %s\nStdout: %s", stderr.String(), stdout.String()), nil
	}
	return stdout.String(), nil
}
