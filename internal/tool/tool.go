// Package tool defines the tool contract, the parameter bag and the registry
// the scheduler resolves tools from.
package tool

import (
	"context"
	"time"
)

// Info is the immutable descriptor of a tool.
type Info struct {
	// Name is the unique registry key.
	Name string
	// Category groups tools for listings.
	Category string
	// Version is the tool version string.
	Version string
	// Title is the human-friendly tool title.
	Title string
	// Description explains the tool for callers.
	Description string
	// Timeout overrides the scheduler execution timeout when positive.
	Timeout time.Duration
	// Schema describes accepted parameters; nil accepts anything.
	Schema *Schema
}

// Tool is a named unit of work with validated parameters.
//
// Validate and Execute must be safe for concurrent use, including concurrent
// invocations of the same tool. Execute should honor ctx cancellation; the
// scheduler cancels ctx when the execution times out or the caller gives up.
type Tool interface {
	// Info returns the tool descriptor.
	Info() Info
	// Validate returns a non-nil error when params are unacceptable.
	Validate(params Params) error
	// Execute runs the tool. A non-nil error marks the execution as failed.
	Execute(ctx context.Context, params Params) (Result, error)
}

// Func adapts plain functions to the Tool interface.
type Func struct {
	// Descriptor is returned from Info.
	Descriptor Info
	// ValidateFunc overrides schema validation when set.
	ValidateFunc func(Params) error
	// ExecuteFunc runs the tool.
	ExecuteFunc func(ctx context.Context, params Params) (Result, error)
}

// Info returns the descriptor.
func (f *Func) Info() Info {
	return f.Descriptor
}

// Validate runs ValidateFunc, falling back to the descriptor schema.
func (f *Func) Validate(params Params) error {
	if f.ValidateFunc != nil {
		return f.ValidateFunc(params)
	}
	return f.Descriptor.Schema.Validate(params)
}

// Execute runs ExecuteFunc.
func (f *Func) Execute(ctx context.Context, params Params) (Result, error) {
	if f.ExecuteFunc == nil {
		return Result{Success: true}, nil
	}
	return f.ExecuteFunc(ctx, params)
}

// CallContext carries caller identity for a single execution request.
type CallContext struct {
	// SessionID identifies the caller session.
	SessionID string
	// UserID identifies the caller.
	UserID string
	// Timestamp is when the caller issued the request.
	Timestamp time.Time
	// Metadata is an optional opaque map.
	Metadata map[string]string
}

// Call describes the execution a tool is running under.
type Call struct {
	// ExecutionID is unique per admitted request.
	ExecutionID string
	// Tool is the tool name.
	Tool string
	// Priority is the effective request priority.
	Priority int
	// Context is the caller context record.
	Context CallContext
}

type callKey struct{}

// WithCall returns a context carrying call details for the tool.
func WithCall(ctx context.Context, call Call) context.Context {
	return context.WithValue(ctx, callKey{}, call)
}

// CallFrom extracts call details placed by the scheduler.
func CallFrom(ctx context.Context) (Call, bool) {
	call, ok := ctx.Value(callKey{}).(Call)
	return call, ok
}
