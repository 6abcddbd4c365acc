package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/executil"
)

// Shell executes a command as a tool.
type Shell struct {
	// Command is the shell command to execute.
	Command string
	// Args are command arguments.
	Args []string
	// Env adds environment variables.
	Env map[string]string
}

// Execute runs the configured shell command and returns its trimmed output.
func (s Shell) Execute(ctx context.Context, req Request) (any, error) {
	out, err := executil.RunCommand(ctx, s.Command, s.Args, s.Env, executil.TemplateData{
		Args:        req.Arguments,
		ToolName:    req.ToolName,
		ExecutionID: req.ExecutionID,
		SessionID:   req.SessionID,
		UserID:      req.UserID,
	})
	text := strings.TrimSpace(out.Text)
	if err != nil {
		if text != "" {
			return text, fmt.Errorf("%w: %s", err, text)
		}
		return text, err
	}
	return text, nil
}
