package startup_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/dsl"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/startup"
)

func TestRunStopsAtFirstFailure(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "marker")
	hooks := []dsl.HookConfig{
		{Command: "touch " + marker},
		{Command: "exit 2"},
		{Command: "rm " + marker},
	}
	if err := startup.Run(context.Background(), hooks, nil); err == nil {
		t.Fatal("expected failure from second hook")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("first hook did not run or third hook ran: %v", err)
	}
}

func TestRunHookTimeout(t *testing.T) {
	hooks := []dsl.HookConfig{{Command: "sleep 5", Timeout: "50ms"}}
	if err := startup.Run(context.Background(), hooks, nil); err == nil {
		t.Fatal("expected timeout failure")
	}
}
