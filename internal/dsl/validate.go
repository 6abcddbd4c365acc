package dsl

import (
	"fmt"
	"strings"
	"time"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/constants"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/scheduler"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

// Validate applies defaults and verifies required fields.
// Duplicate tool names are left to the registry duplicate policy.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateScheduler(cfg.Scheduler); err != nil {
		return err
	}
	for i := range cfg.Tools {
		if err := validateTool(i, &cfg.Tools[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateServer(server *ServerConfig) error {
	if strings.TrimSpace(server.Name) == "" {
		return fmt.Errorf("server.name is required")
	}
	if strings.TrimSpace(server.Version) == "" {
		return fmt.Errorf("server.version is required")
	}
	server.Transport = strings.ToLower(strings.TrimSpace(server.Transport))
	switch server.Transport {
	case "":
		server.Transport = constants.TransportHTTP
	case constants.TransportHTTP, constants.TransportStdio:
	default:
		return fmt.Errorf("server.transport must be http or stdio")
	}
	if strings.TrimSpace(server.HTTP.Listen) == "" {
		server.HTTP.Listen = ":8080"
	}
	if server.HTTP.Path == "" {
		server.HTTP.Path = "/mcp"
	}
	if !strings.HasPrefix(server.HTTP.Path, "/") {
		return fmt.Errorf("server.http.path must start with /")
	}
	durations := map[string]string{
		"server.shutdown_timeout":   server.ShutdownTimeout,
		"server.http.read_timeout":  server.HTTP.ReadTimeout,
		"server.http.write_timeout": server.HTTP.WriteTimeout,
		"server.http.idle_timeout":  server.HTTP.IdleTimeout,
	}
	for path, value := range durations {
		if err := checkDuration(path, value); err != nil {
			return err
		}
	}

	cache := &server.Idempotency
	if cache.Enabled {
		if cache.TTL == "" {
			cache.TTL = "1h"
		}
		if err := checkDuration("server.idempotency_cache.ttl", cache.TTL); err != nil {
			return err
		}
		if cache.MaxEntries == 0 {
			cache.MaxEntries = 1000
		}
		if cache.MaxEntries < 0 {
			return fmt.Errorf("server.idempotency_cache.max_entries must be >= 0")
		}
		cache.KeyStrategy = strings.ToLower(strings.TrimSpace(cache.KeyStrategy))
		switch cache.KeyStrategy {
		case "":
			cache.KeyStrategy = constants.CacheKeyStrategyAuto
		case constants.CacheKeyStrategyAuto, constants.CacheKeyStrategyCorrelationID, constants.CacheKeyStrategyArgumentsHash:
		default:
			return fmt.Errorf("server.idempotency_cache.key_strategy must be auto, correlation_id, or arguments_hash")
		}
	}

	for i, hook := range server.StartupHooks {
		if strings.TrimSpace(hook.Command) == "" {
			return fmt.Errorf("server.startup_hooks[%d].command is required", i)
		}
		if err := checkDuration(fmt.Sprintf("server.startup_hooks[%d].timeout", i), hook.Timeout); err != nil {
			return err
		}
	}
	return nil
}

func validateScheduler(s SchedulerConfig) error {
	if s.MaxConcurrent < 0 {
		return fmt.Errorf("scheduler.max_concurrent must be >= 1")
	}
	if err := checkDuration("scheduler.tool_timeout", s.ToolTimeout); err != nil {
		return err
	}
	if _, err := tool.ParseDuplicatePolicy(s.DuplicatePolicy); err != nil {
		return fmt.Errorf("scheduler.duplicate_policy: %w", err)
	}
	if _, err := scheduler.ParseReleasePolicy(s.ReleasePolicy); err != nil {
		return fmt.Errorf("scheduler.release_policy: %w", err)
	}
	return nil
}

func validateTool(i int, t *ToolConfig) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tools[%d].name is required", i)
	}
	if err := checkDuration(fmt.Sprintf("tools[%d].timeout", i), t.Timeout); err != nil {
		return err
	}
	for name, param := range t.Params {
		switch param.Type {
		case "", "string", "number", "integer", "boolean", "array", "object":
		default:
			return fmt.Errorf("tools[%d].params.%s.type %q is unknown", i, name, param.Type)
		}
	}

	exec := &t.Executor
	exec.Type = strings.ToLower(strings.TrimSpace(exec.Type))
	switch exec.Type {
	case "":
		return fmt.Errorf("tools[%d].executor.type is required", i)
	case constants.ExecutorShell:
		if strings.TrimSpace(exec.Command) == "" {
			return fmt.Errorf("tools[%d].executor.command is required", i)
		}
	case constants.ExecutorHTTP:
		if strings.TrimSpace(exec.URL) == "" {
			return fmt.Errorf("tools[%d].executor.url is required", i)
		}
	default:
		return fmt.Errorf("tools[%d].executor.type %q is unknown", i, exec.Type)
	}
	if err := checkDuration(fmt.Sprintf("tools[%d].executor.timeout", i), exec.Timeout); err != nil {
		return err
	}

	for j := range t.Approvers {
		a := &t.Approvers[j]
		path := fmt.Sprintf("tools[%d].approvers[%d]", i, j)
		a.Type = strings.ToLower(strings.TrimSpace(a.Type))
		switch a.Type {
		case "":
			return fmt.Errorf("%s.type is required", path)
		case constants.ApproverHTTP:
			if strings.TrimSpace(a.URL) == "" {
				return fmt.Errorf("%s.url is required", path)
			}
		case constants.ApproverShell:
			if strings.TrimSpace(a.Command) == "" {
				return fmt.Errorf("%s.command is required", path)
			}
		case constants.ApproverLimits:
			if a.MaxTotal < 0 || a.RatePerMinute < 0 || a.Burst < 0 {
				return fmt.Errorf("%s limits must be >= 0", path)
			}
			if a.MaxTotal == 0 && a.RatePerMinute == 0 {
				return fmt.Errorf("%s needs max_total or rate_per_minute", path)
			}
		default:
			return fmt.Errorf("%s.type %q is unknown", path, a.Type)
		}
		if err := checkDuration(path+".timeout", a.Timeout); err != nil {
			return err
		}
	}
	return nil
}

func checkDuration(path, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", path, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must not be negative", path)
	}
	return nil
}
