// Package scheduler admits tool calls under a global concurrency ceiling,
// queues the overflow by priority and races every execution against a timeout.
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/approver"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/audit"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

// Lookup resolves tools by name. *tool.Registry satisfies it.
type Lookup interface {
	Lookup(name string) (tool.Tool, error)
}

// Gate approves requests after validation and before admission.
// approver.Chain and approver.Router satisfy it.
type Gate interface {
	Approve(ctx context.Context, req approver.Request) (approver.Decision, error)
}

// Request is a single tool execution request.
type Request struct {
	// Tool is the registry name.
	Tool string
	// Params are passed to Validate and Execute unchanged.
	Params tool.Params
	// Priority orders the backlog, higher first. Zero means the configured default.
	Priority int
	// Context is the caller identity record.
	Context tool.CallContext
	// CorrelationID links audit events to a client request.
	CorrelationID string
}

// Outcome is delivered by SubmitAsync.
type Outcome struct {
	Result tool.Result
	Err    error
}

// Stats is a point-in-time snapshot of scheduling state.
type Stats struct {
	InFlight  int `json:"in_flight"`
	Backlog   int `json:"backlog"`
	Peak      int `json:"peak"`
	Max       int `json:"max_concurrent"`
	Admitted  int `json:"admitted"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	TimedOut  int `json:"timed_out"`
	Cancelled int `json:"cancelled"`
	Rejected  int `json:"rejected"`
	Faults    int `json:"faults"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithGate sets the approval gate.
func WithGate(gate Gate) Option {
	return func(c *Coordinator) { c.gate = gate }
}

// WithAudit sets the audit sink.
func WithAudit(logger audit.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.audit = logger
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator replaces the execution ID generator.
func WithIDGenerator(next func() string) Option {
	return func(c *Coordinator) {
		if next != nil {
			c.newID = next
		}
	}
}

// Coordinator schedules tool executions.
type Coordinator struct {
	tools  Lookup
	cfg    Config
	gate   Gate
	audit  audit.Logger
	logger *slog.Logger
	newID  func() string

	mu       sync.Mutex
	inFlight int
	backlog  backlog
	seq      uint64
	stats    Stats
}

// New validates cfg and returns a Coordinator resolving tools from tools.
func New(tools Lookup, cfg Config, opts ...Option) (*Coordinator, error) {
	if tools == nil {
		return nil, fmt.Errorf("%w: tool lookup is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Coordinator{
		tools:  tools,
		cfg:    cfg,
		audit:  audit.Nop{},
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stats.Max = cfg.MaxConcurrent
	return c, nil
}

// Config returns the effective configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// Submit resolves, validates and approves the request, waits for a slot and
// runs the tool under the timeout. It blocks until the outcome is known.
//
// Rejections return a failure result together with an error wrapping
// tool.ErrNotFound, tool.ErrInvalidParameters or ErrDenied. Timeouts and
// execution failures are reported in the result with a nil error. A caller
// cancellation returns a cancelled result and ctx.Err().
func (c *Coordinator) Submit(ctx context.Context, req Request) (tool.Result, error) {
	priority := req.Priority
	if priority == 0 {
		priority = c.cfg.DefaultPriority
	}
	call := tool.Call{Tool: req.Tool, Priority: priority, Context: req.Context}

	t, err := c.tools.Lookup(req.Tool)
	if err != nil {
		if !errors.Is(err, tool.ErrNotFound) {
			err = fmt.Errorf("%w: %v", tool.ErrNotFound, err)
		}
		return c.reject(ctx, req, call, tool.KindToolNotFound, "tool not found", err)
	}
	if t == nil {
		c.mu.Lock()
		c.stats.Faults++
		c.mu.Unlock()
		c.logger.Error("registry returned nil tool", slog.String("tool", req.Tool))
		res := tool.Failure(tool.KindFault, "registry returned no tool for "+req.Tool)
		res.Priority = priority
		return res, nil
	}
	if err := t.Validate(req.Params); err != nil {
		if !errors.Is(err, tool.ErrInvalidParameters) {
			err = fmt.Errorf("%w: %v", tool.ErrInvalidParameters, err)
		}
		return c.reject(ctx, req, call, tool.KindInvalidParameters, "invalid parameters", err)
	}
	if c.gate != nil {
		decision, err := c.gate.Approve(ctx, approver.Request{
			ToolName: req.Tool,
			Params:   req.Params,
			Call:     req.Context,
			Priority: priority,
		})
		if err != nil || !decision.Allowed {
			reason := decision.Reason
			if reason == "" && err != nil {
				reason = err.Error()
			}
			if reason == "" {
				reason = "denied"
			}
			return c.reject(ctx, req, call, tool.KindDenied, reason, fmt.Errorf("%w: %s", ErrDenied, reason))
		}
	}

	call.ExecutionID = c.newID()
	e := &entry{priority: priority, ready: make(chan struct{})}
	waited, err := c.acquire(ctx, req, call, e)
	if err != nil {
		res := tool.Failure(tool.KindCancelled, "cancelled while waiting for capacity", err.Error())
		res.ExecutionID = call.ExecutionID
		res.Priority = priority
		res.Waited = waited
		c.finish(ctx, req, call, res)
		return res, err
	}

	res := c.execute(ctx, t, req.Params, call)
	res.ExecutionID = call.ExecutionID
	res.Priority = priority
	res.Waited = waited
	c.finish(ctx, req, call, res)
	if res.Kind == tool.KindCancelled {
		return res, ctx.Err()
	}
	return res, nil
}

// SubmitAsync runs Submit on its own goroutine. The channel receives exactly
// one Outcome and is then closed.
func (c *Coordinator) SubmitAsync(ctx context.Context, req Request) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		res, err := c.Submit(ctx, req)
		out <- Outcome{Result: res, Err: err}
	}()
	return out
}

// Stats returns a snapshot of the counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.InFlight = c.inFlight
	s.Backlog = c.backlog.Len()
	return s
}

func (c *Coordinator) reject(ctx context.Context, req Request, call tool.Call, kind tool.Kind, message string, err error) (tool.Result, error) {
	res := tool.Failure(kind, message, err.Error())
	res.Priority = call.Priority

	c.mu.Lock()
	c.stats.Rejected++
	c.mu.Unlock()

	c.record(ctx, audit.EventRejected, req, call, kind, err.Error(), 0)
	return res, err
}

// acquire takes a slot or parks e in the backlog until drain hands one over.
func (c *Coordinator) acquire(ctx context.Context, req Request, call tool.Call, e *entry) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	if c.inFlight < c.cfg.MaxConcurrent {
		c.admitLocked()
		c.mu.Unlock()
		c.record(ctx, audit.EventAdmitted, req, call, tool.KindNone, "", 0)
		return 0, nil
	}
	c.seq++
	e.seq = c.seq
	e.enqueuedAt = time.Now()
	heap.Push(&c.backlog, e)
	c.mu.Unlock()
	c.record(ctx, audit.EventBacklogged, req, call, tool.KindNone, "", 0)

	select {
	case <-e.ready:
		waited := time.Since(e.enqueuedAt)
		c.record(ctx, audit.EventAdmitted, req, call, tool.KindNone, "", waited)
		return waited, nil
	case <-ctx.Done():
	}

	c.mu.Lock()
	if e.admitted {
		// The slot was handed over concurrently with the cancellation.
		c.stats.Admitted--
		c.mu.Unlock()
		c.release()
		return time.Since(e.enqueuedAt), ctx.Err()
	}
	heap.Remove(&c.backlog, e.index)
	c.mu.Unlock()
	return time.Since(e.enqueuedAt), ctx.Err()
}

func (c *Coordinator) admitLocked() {
	c.inFlight++
	c.stats.Admitted++
	if c.inFlight > c.stats.Peak {
		c.stats.Peak = c.inFlight
	}
}

// drainLocked hands free slots to backlog entries in priority order.
func (c *Coordinator) drainLocked() {
	for c.inFlight < c.cfg.MaxConcurrent && c.backlog.Len() > 0 {
		e := heap.Pop(&c.backlog).(*entry)
		c.admitLocked()
		e.admitted = true
		close(e.ready)
	}
}

// release returns one slot and drains the backlog.
func (c *Coordinator) release() {
	c.mu.Lock()
	underflow := c.inFlight <= 0
	if underflow {
		c.inFlight = 0
		c.stats.Faults++
	} else {
		c.inFlight--
	}
	c.drainLocked()
	c.mu.Unlock()

	if underflow {
		c.logger.Error("in-flight counter underflow on release", slog.String("kind", string(tool.KindFault)))
	}
}

// execute races the tool against the timeout and the caller context.
func (c *Coordinator) execute(ctx context.Context, t tool.Tool, params tool.Params, call tool.Call) tool.Result {
	timeout := c.cfg.Timeout
	if override := t.Info().Timeout; override > 0 {
		timeout = override
	}
	execCtx, cancel := context.WithTimeout(tool.WithCall(ctx, call), timeout)
	defer cancel()

	release := sync.OnceFunc(c.release)
	holdUntilReturn := c.cfg.Release == ReleaseOnReturn
	done := make(chan tool.Result, 1)
	start := time.Now()

	go func() {
		done <- invoke(execCtx, t, params)
		if holdUntilReturn {
			release()
		}
	}()

	var res tool.Result
	select {
	case res = <-done:
		release()
		if !res.Success && execCtx.Err() != nil {
			res = abandonedWith(ctx, timeout, res)
		}
	case <-execCtx.Done():
		select {
		case res = <-done:
			release()
			if !res.Success {
				res = abandonedWith(ctx, timeout, res)
			}
		default:
			if !holdUntilReturn {
				release()
			}
			res = abandoned(ctx, timeout)
		}
	}
	res.Duration = time.Since(start)
	return res
}

// abandonedWith keeps the errors a failing tool reported at the deadline.
func abandonedWith(ctx context.Context, timeout time.Duration, late tool.Result) tool.Result {
	res := abandoned(ctx, timeout)
	res.Errors = append(res.Errors, late.Errors...)
	return res
}

func abandoned(ctx context.Context, timeout time.Duration) tool.Result {
	if err := ctx.Err(); err != nil {
		return tool.Failure(tool.KindCancelled, "execution cancelled by caller", err.Error())
	}
	return tool.Failure(tool.KindTimeout,
		fmt.Sprintf("execution timed out after %s", timeout),
		context.DeadlineExceeded.Error())
}

// invoke runs the tool and converts errors and panics into failure results.
func invoke(ctx context.Context, t tool.Tool, params tool.Params) (res tool.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = tool.Failure(tool.KindExecution, "tool panicked", fmt.Sprint(r))
		}
	}()

	out, err := t.Execute(ctx, params)
	if err != nil {
		out.Success = false
		out.Kind = tool.KindExecution
		if out.Message == "" {
			out.Message = "tool execution failed"
		}
		out.Errors = append(out.Errors, err.Error())
		return out
	}
	if out.Success {
		out.Kind = tool.KindNone
	} else if out.Kind == tool.KindNone {
		out.Kind = tool.KindExecution
	}
	return out
}

func (c *Coordinator) finish(ctx context.Context, req Request, call tool.Call, res tool.Result) {
	eventType := audit.EventCompleted
	c.mu.Lock()
	switch {
	case res.Success:
		c.stats.Completed++
	case res.Kind == tool.KindTimeout:
		c.stats.TimedOut++
		eventType = audit.EventTimeout
	case res.Kind == tool.KindCancelled:
		c.stats.Cancelled++
		eventType = audit.EventCancelled
	default:
		c.stats.Failed++
		eventType = audit.EventFailed
	}
	c.mu.Unlock()

	reason := res.Message
	if res.Success {
		reason = ""
	}
	c.record(ctx, eventType, req, call, res.Kind, reason, res.Duration)
}

func (c *Coordinator) record(ctx context.Context, eventType string, req Request, call tool.Call, kind tool.Kind, reason string, d time.Duration) {
	c.mu.Lock()
	inFlight, queued := c.inFlight, c.backlog.Len()
	c.mu.Unlock()

	c.audit.Record(context.WithoutCancel(ctx), audit.Event{
		Type:          eventType,
		Tool:          req.Tool,
		ExecutionID:   call.ExecutionID,
		CorrelationID: req.CorrelationID,
		Priority:      call.Priority,
		Kind:          string(kind),
		Reason:        reason,
		Duration:      d,
		InFlight:      inFlight,
		Backlog:       queued,
	})
}
