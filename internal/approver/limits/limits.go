// Package limits caps how often a tool may be admitted, by total count and rate.
package limits

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/approver"
)

// Approver denies calls once a tool exceeds its total budget or request rate.
type Approver struct {
	name          string
	maxTotal      int
	ratePerMinute int
	burst         int

	mu     sync.Mutex
	byTool map[string]*limiterState
}

type limiterState struct {
	count   int
	limiter *rate.Limiter
}

// New creates a limits approver. Zero values disable the corresponding limit.
// burst defaults to ratePerMinute when not positive.
func New(name string, maxTotal, ratePerMinute, burst int) (*Approver, error) {
	if maxTotal < 0 {
		return nil, fmt.Errorf("limits %s: max_total must be >= 0", name)
	}
	if ratePerMinute < 0 {
		return nil, fmt.Errorf("limits %s: rate_per_minute must be >= 0", name)
	}
	if burst <= 0 {
		burst = ratePerMinute
	}
	return &Approver{
		name:          name,
		maxTotal:      maxTotal,
		ratePerMinute: ratePerMinute,
		burst:         burst,
		byTool:        make(map[string]*limiterState),
	}, nil
}

// Name returns approver name for audit and logging.
func (a *Approver) Name() string {
	if a.name != "" {
		return a.name
	}
	return "limits"
}

// Approve counts the call against the tool budget.
func (a *Approver) Approve(_ context.Context, req approver.Request) (approver.Decision, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.byTool[req.ToolName]
	if state == nil {
		state = &limiterState{}
		if a.ratePerMinute > 0 {
			state.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(a.ratePerMinute)), a.burst)
		}
		a.byTool[req.ToolName] = state
	}

	if a.maxTotal > 0 && state.count >= a.maxTotal {
		return approver.Decision{Allowed: false, Reason: "maximum number of calls exceeded", Source: a.Name()}, nil
	}
	if state.limiter != nil && !state.limiter.Allow() {
		return approver.Decision{Allowed: false, Reason: "rate limit exceeded", Source: a.Name()}, nil
	}

	state.count++
	return approver.Decision{Allowed: true, Reason: "approved", Source: a.Name()}, nil
}

// Count returns how many calls were approved for the tool.
func (a *Approver) Count(toolName string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if state := a.byTool[toolName]; state != nil {
		return state.count
	}
	return 0
}
