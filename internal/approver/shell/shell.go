package shell

import (
	"context"
	"slices"
	"strings"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/approver"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/executil"
)

// Approver runs a command and approves when it exits successfully.
type Approver struct {
	// Label is a human-friendly name.
	Label string
	// Command is the shell command to execute.
	Command string
	// Args are optional command arguments.
	Args []string
	// Env adds environment variables for the command.
	Env map[string]string
	// AllowExitCodes declares additional success exit codes.
	AllowExitCodes []int
}

// Name returns approver name for audit and logging.
func (a Approver) Name() string {
	if a.Label != "" {
		return a.Label
	}
	return "shell"
}

// Approve executes the command; its trimmed output becomes the reason.
func (a Approver) Approve(ctx context.Context, req approver.Request) (approver.Decision, error) {
	out, err := executil.RunCommand(ctx, a.Command, a.Args, a.Env, executil.TemplateData{
		Args:      req.Params.Any(),
		ToolName:  req.ToolName,
		SessionID: req.Call.SessionID,
		UserID:    req.Call.UserID,
	})

	allowed := err == nil || slices.Contains(a.AllowExitCodes, out.ExitCode)

	reason := strings.TrimSpace(out.Text)
	if reason == "" {
		if allowed {
			reason = "approved"
		} else {
			reason = "denied"
		}
	}

	return approver.Decision{Allowed: allowed, Reason: reason, Source: a.Name()}, nil
}
