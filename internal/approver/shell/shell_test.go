package shell_test

import (
	"context"
	"testing"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/approver"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/approver/shell"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

func TestApprove(t *testing.T) {
	tests := []struct {
		name    string
		command string
		allow   []int
		want    bool
		reason  string
	}{
		{name: "zero exit", command: `echo "ok for {{ arg "env" }}"`, want: true, reason: "ok for prod"},
		{name: "non-zero exit", command: "echo refused; exit 1", want: false, reason: "refused"},
		{name: "allowed exit code", command: "exit 3", allow: []int{3}, want: true, reason: "approved"},
		{name: "silent failure", command: "exit 4", want: false, reason: "denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := shell.Approver{Command: tt.command, AllowExitCodes: tt.allow}
			d, err := a.Approve(context.Background(), approver.Request{
				ToolName: "deploy",
				Params:   tool.Params{"env": tool.String("prod")},
			})
			if err != nil {
				t.Fatalf("approve: %v", err)
			}
			if d.Allowed != tt.want || d.Reason != tt.reason || d.Source != "shell" {
				t.Fatalf("unexpected %+v", d)
			}
		})
	}
}
