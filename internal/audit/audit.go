package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event types recorded by the scheduler and the MCP layer.
const (
	EventRejected   = "tool_rejected"
	EventBacklogged = "tool_backlogged"
	EventAdmitted   = "tool_admitted"
	EventCompleted  = "tool_completed"
	EventFailed     = "tool_failed"
	EventTimeout    = "tool_timeout"
	EventCancelled  = "tool_cancelled"
	EventCacheHit   = "cache_hit"
	EventCacheStore = "cache_store"
)

// Event represents an audit entry for a scheduled tool call.
type Event struct {
	// Type describes the event kind.
	Type string
	// Tool is the tool name.
	Tool string
	// ExecutionID identifies the scheduled execution.
	ExecutionID string
	// CorrelationID links events from the same client request.
	CorrelationID string
	// Priority is the effective request priority.
	Priority int
	// Kind classifies unsuccessful outcomes.
	Kind string
	// Reason provides additional context.
	Reason string
	// Duration is the execution or wait time, when relevant.
	Duration time.Duration
	// InFlight is the in-flight count after the transition.
	InFlight int
	// Backlog is the backlog length after the transition.
	Backlog int
}

// Logger records audit events. Implementations must not block the caller for long.
type Logger interface {
	// Record stores an audit event.
	Record(ctx context.Context, event Event)
}

// StdLogger writes audit events to slog.
type StdLogger struct {
	logger *slog.Logger
}

// New returns a StdLogger.
func New(logger *slog.Logger) *StdLogger {
	return &StdLogger{logger: logger}
}

// Record logs an audit event.
func (l *StdLogger) Record(ctx context.Context, event Event) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.LogAttrs(ctx, levelFor(event.Type), "audit",
		slog.String("type", event.Type),
		slog.String("tool", event.Tool),
		slog.String("execution_id", event.ExecutionID),
		slog.String("correlation_id", event.CorrelationID),
		slog.Int("priority", event.Priority),
		slog.String("kind", event.Kind),
		slog.String("reason", event.Reason),
		slog.Duration("duration", event.Duration),
		slog.Int("in_flight", event.InFlight),
		slog.Int("backlog", event.Backlog),
	)
}

func levelFor(eventType string) slog.Level {
	switch eventType {
	case EventTimeout, EventFailed:
		return slog.LevelWarn
	case EventBacklogged, EventAdmitted, EventCacheHit, EventCacheStore:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Nop discards events.
type Nop struct{}

// Record does nothing.
func (Nop) Record(context.Context, Event) {}

// Recorder keeps events in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Record appends the event.
func (r *Recorder) Record(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns recorded events with the given type, in order.
func (r *Recorder) OfType(eventType string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
