package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/dsl"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/scheduler"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/timeutil"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

// Config stores environment-driven settings for the server.
// Pointer fields are nil when the variable is unset and then defer to YAML.
type Config struct {
	// ConfigPath is the path to the YAML configuration file.
	ConfigPath string `env:"TOOLSCHED_CONFIG" envDefault:"config.yaml"`
	// LogLevel sets the logger level.
	LogLevel string `env:"TOOLSCHED_LOG_LEVEL" envDefault:"info"`
	// LogFormat selects json or text output.
	LogFormat string `env:"TOOLSCHED_LOG_FORMAT" envDefault:"json"`
	// ShutdownTimeout controls graceful shutdown duration. Zero defers to YAML.
	ShutdownTimeout time.Duration `env:"TOOLSCHED_SHUTDOWN_TIMEOUT"`

	// MaxConcurrent overrides scheduler.max_concurrent.
	MaxConcurrent *int `env:"TOOLSCHED_MAX_CONCURRENT"`
	// ToolTimeout overrides scheduler.tool_timeout.
	ToolTimeout *time.Duration `env:"TOOLSCHED_TOOL_TIMEOUT"`
	// DefaultPriority overrides scheduler.default_priority.
	DefaultPriority *int `env:"TOOLSCHED_DEFAULT_PRIORITY"`
	// DuplicatePolicy overrides scheduler.duplicate_policy.
	DuplicatePolicy *string `env:"TOOLSCHED_DUPLICATE_POLICY"`
	// ReleasePolicy overrides scheduler.release_policy.
	ReleasePolicy *string `env:"TOOLSCHED_RELEASE_POLICY"`
}

// Load parses environment variables into Config.
func Load() (Config, error) {
	return env.ParseAs[Config]()
}

// Settings is the resolved scheduling configuration.
type Settings struct {
	// Scheduler configures the coordinator.
	Scheduler scheduler.Config
	// Duplicates configures the tool registry.
	Duplicates tool.DuplicatePolicy
}

// Resolve layers defaults, the YAML scheduler block and env overrides, in that order.
func (c Config) Resolve(file dsl.SchedulerConfig) (Settings, error) {
	out := Settings{Scheduler: scheduler.DefaultConfig()}

	if file.MaxConcurrent > 0 {
		out.Scheduler.MaxConcurrent = file.MaxConcurrent
	}
	out.Scheduler.Timeout = timeutil.OrDefault(file.ToolTimeout, out.Scheduler.Timeout)
	if file.DefaultPriority != 0 {
		out.Scheduler.DefaultPriority = file.DefaultPriority
	}
	duplicates, releases := file.DuplicatePolicy, file.ReleasePolicy

	if c.MaxConcurrent != nil {
		out.Scheduler.MaxConcurrent = *c.MaxConcurrent
	}
	if c.ToolTimeout != nil {
		out.Scheduler.Timeout = *c.ToolTimeout
	}
	if c.DefaultPriority != nil {
		out.Scheduler.DefaultPriority = *c.DefaultPriority
	}
	if c.DuplicatePolicy != nil {
		duplicates = *c.DuplicatePolicy
	}
	if c.ReleasePolicy != nil {
		releases = *c.ReleasePolicy
	}

	var err error
	if out.Duplicates, err = tool.ParseDuplicatePolicy(duplicates); err != nil {
		return Settings{}, fmt.Errorf("duplicate policy: %w", err)
	}
	if out.Scheduler.Release, err = scheduler.ParseReleasePolicy(releases); err != nil {
		return Settings{}, fmt.Errorf("release policy: %w", err)
	}
	if err := out.Scheduler.Validate(); err != nil {
		return Settings{}, err
	}
	return out, nil
}
