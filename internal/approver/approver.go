package approver

import (
	"context"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

// Request is what approvers see before a tool call is admitted.
type Request struct {
	// ToolName is the tool being approved.
	ToolName string
	// Params are validated tool parameters.
	Params tool.Params
	// Call carries caller identity.
	Call tool.CallContext
	// Priority is the effective request priority.
	Priority int
}

// Decision represents the approver decision.
type Decision struct {
	// Allowed indicates approval result.
	Allowed bool
	// Reason explains the decision.
	Reason string
	// Source identifies the approver.
	Source string
}

// Approver checks whether a tool call may be scheduled.
type Approver interface {
	// Name returns the approver identifier.
	Name() string
	// Approve returns a decision for the given request.
	Approve(ctx context.Context, req Request) (Decision, error)
}

// Chain runs approvers sequentially until one denies.
type Chain struct {
	// Approvers is the ordered list to execute.
	Approvers []Approver
}

// Approve executes all approvers in order. An empty chain approves.
func (c Chain) Approve(ctx context.Context, req Request) (Decision, error) {
	for _, item := range c.Approvers {
		decision, err := item.Approve(ctx, req)
		if err != nil {
			return Decision{Allowed: false, Reason: err.Error(), Source: item.Name()}, err
		}
		if !decision.Allowed {
			if decision.Source == "" {
				decision.Source = item.Name()
			}
			return decision, nil
		}
	}
	return Decision{Allowed: true, Reason: "approved"}, nil
}

// Router selects a chain by tool name. Tools without a chain are approved.
type Router struct {
	// Chains maps tool names to their approval chains.
	Chains map[string]Chain
}

// Approve runs the chain configured for req.ToolName.
func (r Router) Approve(ctx context.Context, req Request) (Decision, error) {
	chain, ok := r.Chains[req.ToolName]
	if !ok || len(chain.Approvers) == 0 {
		return Decision{Allowed: true, Reason: "no approvers"}, nil
	}
	return chain.Approve(ctx, req)
}
