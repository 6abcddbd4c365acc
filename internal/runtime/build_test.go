package runtime

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/audit"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/constants"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/idempotency"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/protocol"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/scheduler"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	requests []scheduler.Request
	result   tool.Result
	err      error
}

func (f *fakeSubmitter) Submit(_ context.Context, req scheduler.Request) (tool.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	res := f.result
	if res.Priority == 0 {
		res.Priority = req.Priority
	}
	return res, f.err
}

func TestCallSplitsReservedKeys(t *testing.T) {
	sub := &fakeSubmitter{result: tool.Result{Success: true, Payload: "done", ExecutionID: "exec-1", Duration: 3 * time.Millisecond}}
	b := Builder{Scheduler: sub}

	resp := b.Call(context.Background(), "deploy", map[string]any{
		"env":            "prod",
		"priority":       float64(8),
		"session_id":     "s-1",
		"user_id":        "u-1",
		"correlation_id": "corr-1",
	})

	if len(sub.requests) != 1 {
		t.Fatalf("expected one submit, got %d", len(sub.requests))
	}
	req := sub.requests[0]
	if req.Tool != "deploy" || req.Priority != 8 || req.CorrelationID != "corr-1" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Context.SessionID != "s-1" || req.Context.UserID != "u-1" || req.Context.Timestamp.IsZero() {
		t.Fatalf("unexpected call context %+v", req.Context)
	}
	if keys := req.Params.Keys(); len(keys) != 1 || keys[0] != "env" {
		t.Fatalf("reserved keys leaked into params: %v", keys)
	}
	if resp.Status != protocol.StatusSuccess || resp.Payload != "done" || resp.ExecutionID != "exec-1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.DurationMS != 3 || resp.Priority != 8 || resp.CorrelationID != "corr-1" {
		t.Fatalf("unexpected response metadata %+v", resp)
	}
}

func TestCallRejectsBadPriority(t *testing.T) {
	sub := &fakeSubmitter{}
	b := Builder{Scheduler: sub}
	for _, raw := range []any{"high", 2.5} {
		resp := b.Call(context.Background(), "deploy", map[string]any{"priority": raw})
		if resp.Status != protocol.StatusRejected || resp.Kind != string(tool.KindInvalidParameters) {
			t.Fatalf("priority %v: unexpected response %+v", raw, resp)
		}
	}
	if len(sub.requests) != 0 {
		t.Fatal("invalid input reached the scheduler")
	}
}

func TestCallStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		result tool.Result
		err    error
		status string
	}{
		{name: "not found", result: tool.Failure(tool.KindToolNotFound, "tool not found"), err: tool.ErrNotFound, status: protocol.StatusRejected},
		{name: "denied", result: tool.Failure(tool.KindDenied, "no"), err: scheduler.ErrDenied, status: protocol.StatusRejected},
		{name: "timeout", result: tool.Failure(tool.KindTimeout, "timed out"), status: protocol.StatusTimeout},
		{name: "execution", result: tool.Failure(tool.KindExecution, "boom"), status: protocol.StatusError},
		{name: "cancelled", result: tool.Failure(tool.KindCancelled, "gone"), err: context.Canceled, status: protocol.StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Builder{Scheduler: &fakeSubmitter{result: tt.result, err: tt.err}}
			resp := b.Call(context.Background(), "x", nil)
			if resp.Status != tt.status || resp.Kind != string(tt.result.Kind) {
				t.Fatalf("unexpected response %+v", resp)
			}
		})
	}
}

func TestCallUsesIdempotencyCache(t *testing.T) {
	sub := &fakeSubmitter{result: tool.Result{Success: true, Payload: "v1"}}
	rec := &audit.Recorder{}
	b := Builder{
		Scheduler:        sub,
		Cache:            idempotency.NewCache(time.Minute, 10),
		CacheKeyStrategy: constants.CacheKeyStrategyAuto,
		Audit:            rec,
	}
	args := func() map[string]any { return map[string]any{"env": "prod", "n": float64(1)} }

	first := b.Call(context.Background(), "deploy", args())
	second := b.Call(context.Background(), "deploy", args())
	if len(sub.requests) != 1 {
		t.Fatalf("expected cached second call, submits %d", len(sub.requests))
	}
	if first.Cached || !second.Cached || second.Payload != "v1" {
		t.Fatalf("unexpected cache flags %+v / %+v", first, second)
	}
	if len(rec.OfType(audit.EventCacheStore)) != 1 || len(rec.OfType(audit.EventCacheHit)) != 1 {
		t.Fatalf("unexpected audit events %+v", rec.Events())
	}

	sub.result = tool.Failure(tool.KindExecution, "boom")
	b.Call(context.Background(), "deploy", map[string]any{"env": "staging"})
	b.Call(context.Background(), "deploy", map[string]any{"env": "staging"})
	if len(sub.requests) != 3 {
		t.Fatalf("failures must not be cached, submits %d", len(sub.requests))
	}
}

func TestBuildCacheKey(t *testing.T) {
	params := tool.Params{"b": tool.Number(2), "a": tool.List(tool.String("x"), tool.Bool(true))}
	same := tool.Params{"a": tool.List(tool.String("x"), tool.Bool(true)), "b": tool.Number(2)}

	hashA, err := buildCacheKey("t", "", false, params, constants.CacheKeyStrategyArgumentsHash)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hashB, _ := buildCacheKey("t", "", false, same, constants.CacheKeyStrategyArgumentsHash)
	if hashA != hashB || !strings.HasPrefix(hashA, "t:") {
		t.Fatalf("hash not canonical: %s vs %s", hashA, hashB)
	}

	tests := []struct {
		name       string
		id         string
		providedID bool
		strategy   string
		want       string
	}{
		{name: "auto with id", id: "c1", providedID: true, strategy: "auto", want: "t:c1"},
		{name: "auto without id", id: "corr-gen", strategy: "", want: hashA},
		{name: "correlation id only", id: "c1", providedID: true, strategy: "correlation_id", want: "t:c1"},
		{name: "generated id is not a key", id: "corr-gen", strategy: "correlation_id", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildCacheKey("t", tt.id, tt.providedID, params, tt.strategy)
			if err != nil {
				t.Fatalf("key: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
	if _, err := buildCacheKey("t", "", false, params, "random"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestMarkdownResponseFormat(t *testing.T) {
	b := Builder{Scheduler: &fakeSubmitter{result: tool.Failure(tool.KindExecution, "boom", "exit status 1")}}
	resp := b.Call(context.Background(), "x", map[string]any{"response_format": "Markdown"})
	if !strings.Contains(resp.Message, "**status**: error") || !strings.Contains(resp.Message, "- exit status 1") {
		t.Fatalf("unexpected markdown message %q", resp.Message)
	}
}

func TestInputSchemaPublishesReservedKeys(t *testing.T) {
	schema, err := tool.NewSchema(map[string]tool.Field{"env": {Type: "string", Required: true}}, false)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	out := inputSchema(schema)
	props := out["properties"].(map[string]any)
	for _, key := range []string{"env", keyPriority, keySessionID, keyUserID, keyCorrelationID, keyResponseFormat} {
		if _, ok := props[key]; !ok {
			t.Fatalf("missing property %s", key)
		}
	}
	if req := out["required"].([]string); len(req) != 1 || req[0] != "env" {
		t.Fatalf("unexpected required %v", req)
	}
}

func TestBuildRequiresScheduler(t *testing.T) {
	if _, err := (Builder{}).Build(testServer(), nil); err == nil {
		t.Fatal("expected error")
	}
}
