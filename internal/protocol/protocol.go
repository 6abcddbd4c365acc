package protocol

// Tool call statuses returned to MCP clients.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
	StatusTimeout  = "timeout"
)

// Approval decisions.
const (
	DecisionApprove = "approve"
	DecisionDeny    = "deny"
	DecisionError   = "error"
)

// ToolResponse is the fixed JSON response returned to MCP clients.
type ToolResponse struct {
	// Status summarizes the outcome.
	Status string `json:"status"`
	// Kind classifies unsuccessful outcomes.
	Kind string `json:"kind,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message,omitempty"`
	// Payload is the tool output.
	Payload any `json:"payload,omitempty"`
	// Errors lists failure details.
	Errors []string `json:"errors,omitempty"`
	// DurationMS is the execution duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`
	// WaitedMS is the time spent in the backlog in milliseconds.
	WaitedMS int64 `json:"waited_ms"`
	// Priority is the effective request priority.
	Priority int `json:"priority"`
	// ExecutionID identifies the scheduled execution.
	ExecutionID string `json:"execution_id,omitempty"`
	// CorrelationID links related requests.
	CorrelationID string `json:"correlation_id"`
	// Cached is true when the response came from the idempotency cache.
	Cached bool `json:"cached,omitempty"`
}

// ApproverRequest is the payload sent to HTTP approvers.
type ApproverRequest struct {
	// Tool is the tool name.
	Tool string `json:"tool"`
	// Arguments are redacted tool arguments.
	Arguments map[string]any `json:"arguments"`
	// SessionID identifies the caller session.
	SessionID string `json:"session_id,omitempty"`
	// UserID identifies the caller.
	UserID string `json:"user_id,omitempty"`
	// Priority is the effective request priority.
	Priority int `json:"priority"`
}

// ApproverResponse is the fixed JSON response expected from HTTP approvers.
type ApproverResponse struct {
	// Decision is the approver decision.
	Decision string `json:"decision"`
	// Reason provides additional context.
	Reason string `json:"reason,omitempty"`
}

// ExecutorRequest is the payload sent to HTTP executors.
type ExecutorRequest struct {
	// ExecutionID identifies the scheduled execution.
	ExecutionID string `json:"execution_id"`
	// Tool is the tool name.
	Tool string `json:"tool"`
	// Arguments are tool arguments.
	Arguments map[string]any `json:"arguments"`
	// TimeoutSec is the remaining execution budget in seconds.
	TimeoutSec int `json:"timeout_sec,omitempty"`
}

// ExecutorResponse is the JSON response expected from HTTP executors.
type ExecutorResponse struct {
	// Status is success or error.
	Status string `json:"status"`
	// Result is the executor output.
	Result any `json:"result,omitempty"`
}
