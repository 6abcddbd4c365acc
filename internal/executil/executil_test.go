package executil_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/executil"
)

func TestRenderTemplate(t *testing.T) {
	data := executil.TemplateData{
		Args:        map[string]any{"name": "ada", "n": float64(3)},
		ToolName:    "greet",
		ExecutionID: "exec-1",
	}
	tests := []struct {
		tmpl string
		want string
	}{
		{tmpl: `{{ arg "name" }}`, want: "ada"},
		{tmpl: `{{ arg "n" }}x`, want: "3x"},
		{tmpl: `{{ .ToolName }}/{{ .ExecutionID }}`, want: "greet/exec-1"},
		{tmpl: `{{ .Args.name }}`, want: "ada"},
		{tmpl: `plain`, want: "plain"},
	}
	for _, tt := range tests {
		got, err := executil.RenderTemplate(tt.tmpl, data)
		if err != nil {
			t.Fatalf("%s: %v", tt.tmpl, err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.tmpl, got, tt.want)
		}
	}
	if _, err := executil.RenderTemplate(`{{ arg `, data); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRunCommandArgsAndEnv(t *testing.T) {
	out, err := executil.RunCommand(context.Background(), "printf", []string{"%s-%s", "{{ arg \"a\" }}", "b"},
		nil, executil.TemplateData{Args: map[string]any{"a": "x"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Text != "x-b" || out.ExitCode != 0 {
		t.Fatalf("unexpected output %+v", out)
	}

	out, err = executil.RunCommand(context.Background(), `echo "$WHO $TOOL_NAME $TOOL_EXECUTION_ID"; exit 4`, nil,
		map[string]string{"WHO": "{{ .UserID }}"}, executil.TemplateData{ToolName: "t", ExecutionID: "e", UserID: "u"})
	if err == nil || out.ExitCode != 4 {
		t.Fatalf("expected exit 4, got %+v %v", out, err)
	}
	if strings.TrimSpace(out.Text) != "u t e" {
		t.Fatalf("unexpected output %q", out.Text)
	}
}

func TestRunCommandHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	out, err := executil.RunCommand(ctx, "sleep 5", nil, nil, executil.TemplateData{})
	if err == nil {
		t.Fatal("expected error")
	}
	if out.ExitCode == 0 || time.Since(start) > 3*time.Second {
		t.Fatalf("command not stopped: %+v after %s", out, time.Since(start))
	}
}
