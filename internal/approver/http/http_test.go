package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/approver"
	approverhttp "github.com/codex-k8s/yaml-tool-scheduler/internal/approver/http"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/protocol"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/security"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

func TestApprove(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		allowed bool
		reason  string
		wantErr bool
	}{
		{name: "approve", status: http.StatusOK, body: `{"decision":"approve"}`, allowed: true, reason: "approved"},
		{name: "deny with reason", status: http.StatusOK, body: `{"decision":"deny","reason":"change freeze"}`, reason: "change freeze"},
		{name: "error decision", status: http.StatusOK, body: `{"decision":"error"}`, reason: "approver error"},
		{name: "bad status", status: http.StatusForbidden, body: "forbidden", reason: "approver status 403: forbidden"},
		{name: "malformed body", status: http.StatusOK, body: "{", reason: "invalid approver response", wantErr: true},
		{name: "unknown decision", status: http.StatusOK, body: `{"decision":"maybe"}`, reason: "unknown approver decision", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got protocol.ApproverRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := approverhttp.Client{Label: "gate", URL: srv.URL}
			d, err := c.Approve(context.Background(), approver.Request{
				ToolName: "deploy",
				Params:   tool.Params{"env": tool.String("prod"), "api_token": tool.String("s3cr3t")},
				Call:     tool.CallContext{UserID: "u-1"},
				Priority: 7,
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
			if d.Allowed != tt.allowed || d.Reason != tt.reason || d.Source != "gate" {
				t.Fatalf("unexpected %+v", d)
			}
			if got.Tool != "deploy" || got.UserID != "u-1" || got.Priority != 7 {
				t.Fatalf("unexpected request %+v", got)
			}
			if got.Arguments["api_token"] != security.Mask || got.Arguments["env"] != "prod" {
				t.Fatalf("arguments not redacted: %v", got.Arguments)
			}
		})
	}
}

func TestApproveWithoutURL(t *testing.T) {
	d, err := approverhttp.Client{}.Approve(context.Background(), approver.Request{})
	if err != nil || d.Allowed {
		t.Fatalf("unexpected %+v %v", d, err)
	}
}
