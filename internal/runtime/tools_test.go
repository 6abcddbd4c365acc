package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/dsl"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/protocol"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/scheduler"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

func testServer() dsl.ServerConfig {
	return dsl.ServerConfig{Name: "tool-scheduler-test", Version: "0.0.1"}
}

func floatPtr(v float64) *float64 { return &v }

func newStack(t *testing.T, tools []dsl.ToolConfig) (*tool.Registry, *scheduler.Coordinator) {
	t.Helper()
	registry := tool.NewRegistry()
	if err := RegisterTools(registry, tools); err != nil {
		t.Fatalf("register: %v", err)
	}
	router, err := BuildApprovals(tools)
	if err != nil {
		t.Fatalf("approvals: %v", err)
	}
	cfg := scheduler.DefaultConfig()
	cfg.MaxConcurrent = 2
	cfg.Timeout = 5 * time.Second
	coord, err := scheduler.New(registry, cfg, scheduler.WithGate(router))
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	return registry, coord
}

func TestDeclaredShellToolThroughBuilder(t *testing.T) {
	tools := []dsl.ToolConfig{{
		Name:     "greet",
		Category: "demo",
		Params: map[string]dsl.ParamConfig{
			"name": {Type: "string", Required: true, Regex: "^[a-z]+$"},
		},
		Executor: dsl.ExecutorConfig{
			Type:    "shell",
			Command: `echo "hello {{ arg "name" }} from $TOOL_NAME"`,
		},
	}}
	registry, coord := newStack(t, tools)
	b := Builder{Scheduler: coord}

	if _, err := b.Build(testServer(), registry.ListAll()); err != nil {
		t.Fatalf("build: %v", err)
	}

	resp := b.Call(context.Background(), "greet", map[string]any{"name": "ada", "priority": float64(9)})
	if resp.Status != protocol.StatusSuccess || resp.Payload != "hello ada from greet" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Priority != 9 || resp.ExecutionID == "" {
		t.Fatalf("missing scheduling metadata %+v", resp)
	}

	resp = b.Call(context.Background(), "greet", map[string]any{"name": "Ada!"})
	if resp.Status != protocol.StatusRejected || resp.Kind != string(tool.KindInvalidParameters) {
		t.Fatalf("expected validation rejection, got %+v", resp)
	}
	if stats := coord.Stats(); stats.Rejected != 1 || stats.Completed != 1 || stats.InFlight != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestDeclaredHTTPTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req protocol.ExecutorRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(protocol.ExecutorResponse{
			Status: protocol.StatusSuccess,
			Result: map[string]any{"tool": req.Tool, "id": req.ExecutionID, "count": req.Arguments["count"]},
		})
	}))
	defer srv.Close()

	tools := []dsl.ToolConfig{{
		Name: "remote",
		Params: map[string]dsl.ParamConfig{
			"count": {Type: "integer", Min: floatPtr(1), Max: floatPtr(10)},
		},
		StrictParams: true,
		Executor:     dsl.ExecutorConfig{Type: "http", URL: srv.URL},
	}}
	_, coord := newStack(t, tools)

	res, err := coord.Submit(context.Background(), scheduler.Request{
		Tool:   "remote",
		Params: tool.Params{"count": tool.Number(3)},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	payload, ok := res.Payload.(map[string]any)
	if !ok || payload["tool"] != "remote" || payload["id"] != res.ExecutionID || payload["count"] != float64(3) {
		t.Fatalf("unexpected payload %#v", res.Payload)
	}

	_, err = coord.Submit(context.Background(), scheduler.Request{
		Tool:   "remote",
		Params: tool.Params{"count": tool.Number(3), "extra": tool.Bool(true)},
	})
	if !errors.Is(err, tool.ErrInvalidParameters) {
		t.Fatalf("strict params must reject unknown keys, got %v", err)
	}
}

func TestDeclaredToolTimeoutOverride(t *testing.T) {
	tools := []dsl.ToolConfig{{
		Name:     "sleepy",
		Timeout:  "50ms",
		Executor: dsl.ExecutorConfig{Type: "shell", Command: "sleep 2"},
	}}
	_, coord := newStack(t, tools)

	start := time.Now()
	res, err := coord.Submit(context.Background(), scheduler.Request{Tool: "sleepy"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Kind != tool.KindTimeout {
		t.Fatalf("expected timeout, got %+v", res)
	}
	if time.Since(start) > time.Second {
		t.Fatal("tool timeout override ignored")
	}
}

func TestLimitsApproverFromDSL(t *testing.T) {
	tools := []dsl.ToolConfig{{
		Name:      "once",
		Executor:  dsl.ExecutorConfig{Type: "shell", Command: "true"},
		Approvers: []dsl.ApproverConfig{{Type: "limits", Name: "budget", MaxTotal: 1}},
	}}
	_, coord := newStack(t, tools)

	if _, err := coord.Submit(context.Background(), scheduler.Request{Tool: "once"}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	res, err := coord.Submit(context.Background(), scheduler.Request{Tool: "once"})
	if !errors.Is(err, scheduler.ErrDenied) || res.Kind != tool.KindDenied {
		t.Fatalf("expected denial, got %+v %v", res, err)
	}
}

func TestRegisterToolsDuplicatePolicy(t *testing.T) {
	tools := []dsl.ToolConfig{
		{Name: "dup", Title: "first", Executor: dsl.ExecutorConfig{Type: "shell", Command: "true"}},
		{Name: "dup", Title: "second", Executor: dsl.ExecutorConfig{Type: "shell", Command: "true"}},
	}

	override := tool.NewRegistry()
	if err := RegisterTools(override, tools); err != nil {
		t.Fatalf("override: %v", err)
	}
	got, err := override.Lookup("dup")
	if err != nil || got.Info().Title != "second" {
		t.Fatalf("last declaration must win, got %+v %v", got, err)
	}

	reject := tool.NewRegistry(tool.WithDuplicatePolicy(tool.DuplicateReject))
	if err := RegisterTools(reject, tools); !errors.Is(err, tool.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestBuildApprovalsUnknownType(t *testing.T) {
	_, err := BuildApprovals([]dsl.ToolConfig{{Name: "x", Approvers: []dsl.ApproverConfig{{Type: "oracle"}}}})
	if err == nil {
		t.Fatal("expected error")
	}
}
