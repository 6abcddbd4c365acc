package tool

import "time"

// Kind classifies the terminal outcome of a request.
type Kind string

// Outcome kinds.
const (
	KindNone              Kind = ""
	KindToolNotFound      Kind = "tool_not_found"
	KindInvalidParameters Kind = "invalid_parameters"
	KindDenied            Kind = "denied"
	KindTimeout           Kind = "timeout"
	KindExecution         Kind = "execution_error"
	KindFault             Kind = "coordinator_fault"
	KindCancelled         Kind = "cancelled"
)

// Rejected reports whether the kind is decided before any scheduling state is touched.
func (k Kind) Rejected() bool {
	switch k {
	case KindToolNotFound, KindInvalidParameters, KindDenied:
		return true
	default:
		return false
	}
}

// Result is the outcome of one execution attempt.
type Result struct {
	// Success is true when the tool completed without failure.
	Success bool
	// Payload is optional tool output.
	Payload any
	// Message is a human-readable summary.
	Message string
	// Duration is the measured execution time.
	Duration time.Duration
	// Errors lists failure details.
	Errors []string
	// Kind classifies unsuccessful outcomes.
	Kind Kind
	// ExecutionID identifies the admitted request.
	ExecutionID string
	// Priority is the effective request priority.
	Priority int
	// Waited is the time spent in the backlog.
	Waited time.Duration
}

// Failure builds an unsuccessful result of the given kind.
func Failure(kind Kind, message string, errs ...string) Result {
	return Result{
		Success: false,
		Message: message,
		Errors:  errs,
		Kind:    kind,
	}
}
