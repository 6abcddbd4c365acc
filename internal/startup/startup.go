// Package startup runs the one-time hooks declared in server.startup_hooks.
package startup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/dsl"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/executil"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/timeutil"
)

// Run executes hooks sequentially and stops at the first failure.
func Run(ctx context.Context, hooks []dsl.HookConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for idx, hook := range hooks {
		if strings.TrimSpace(hook.Command) == "" {
			continue
		}
		if err := runHook(ctx, idx, hook, logger); err != nil {
			return err
		}
	}
	return nil
}

func runHook(ctx context.Context, idx int, hook dsl.HookConfig, logger *slog.Logger) error {
	if timeout := timeutil.OrDefault(hook.Timeout, 0); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Info("running startup hook", "index", idx)
	out, err := executil.RunCommand(ctx, hook.Command, hook.Args, hook.Env, executil.TemplateData{ToolName: "startup"})
	text := strings.TrimSpace(out.Text)
	if err != nil {
		logger.Error("startup hook failed", "index", idx, "exit_code", out.ExitCode, "output", text)
		return fmt.Errorf("startup hook %d failed: %w", idx, err)
	}
	if text != "" {
		logger.Info("startup hook output", "index", idx, "output", text)
	}
	return nil
}
