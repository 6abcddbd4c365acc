package executor

import "context"

// Request contains tool execution inputs.
type Request struct {
	// ToolName is the tool being executed.
	ToolName string
	// Arguments are tool arguments.
	Arguments map[string]any
	// ExecutionID identifies the scheduled execution.
	ExecutionID string
	// SessionID identifies the caller session.
	SessionID string
	// UserID identifies the caller.
	UserID string
}

// Executor executes a declared tool.
type Executor interface {
	// Execute runs the tool logic and returns its output.
	Execute(ctx context.Context, req Request) (any, error)
}
