package dsl

// Config is the top-level YAML configuration.
type Config struct {
	// Server describes the MCP server settings.
	Server ServerConfig `yaml:"server"`
	// Scheduler holds coordinator settings.
	Scheduler SchedulerConfig `yaml:"scheduler"`
	// Tools lists all tool declarations.
	Tools []ToolConfig `yaml:"tools"`
}

// ServerConfig defines MCP server settings.
type ServerConfig struct {
	// Name is the MCP server name.
	Name string `yaml:"name"`
	// Version is the MCP server version.
	Version string `yaml:"version"`
	// Transport selects the server transport ("http" or "stdio").
	Transport string `yaml:"transport"`
	// ShutdownTimeout overrides graceful shutdown duration.
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	// Idempotency configures optional response caching.
	Idempotency IdempotencyConfig `yaml:"idempotency_cache"`
	// StartupHooks defines one-time commands executed before serving.
	StartupHooks []HookConfig `yaml:"startup_hooks"`
	// HTTP configures HTTP transport.
	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// Path is the MCP HTTP endpoint path.
	Path string `yaml:"path"`
	// ReadTimeout limits request read time.
	ReadTimeout string `yaml:"read_timeout"`
	// WriteTimeout limits response write time.
	WriteTimeout string `yaml:"write_timeout"`
	// IdleTimeout controls idle connections.
	IdleTimeout string `yaml:"idle_timeout"`
	// Stateless disables session tracking.
	Stateless bool `yaml:"stateless"`
}

// SchedulerConfig configures admission and timeouts. Zero values keep the defaults.
type SchedulerConfig struct {
	// MaxConcurrent bounds in-flight executions.
	MaxConcurrent int `yaml:"max_concurrent"`
	// ToolTimeout is the global execution timeout.
	ToolTimeout string `yaml:"tool_timeout"`
	// DefaultPriority replaces unspecified request priorities.
	DefaultPriority int `yaml:"default_priority"`
	// DuplicatePolicy is "override" or "reject".
	DuplicatePolicy string `yaml:"duplicate_policy"`
	// ReleasePolicy is "release_on_timeout" or "release_on_return".
	ReleasePolicy string `yaml:"release_policy"`
}

// ToolConfig declares a tool registered with the scheduler.
type ToolConfig struct {
	// Name is the tool name.
	Name string `yaml:"name"`
	// Category groups tools in listings.
	Category string `yaml:"category"`
	// Version is the tool version.
	Version string `yaml:"version"`
	// Title is the human-friendly tool title.
	Title string `yaml:"title"`
	// Description explains the tool for the agent.
	Description string `yaml:"description"`
	// Annotations provides optional tool hints.
	Annotations *ToolAnnotationsConfig `yaml:"annotations,omitempty"`
	// Timeout overrides the scheduler tool timeout.
	Timeout string `yaml:"timeout"`
	// StrictParams rejects parameters not declared in Params.
	StrictParams bool `yaml:"strict_params"`
	// Params declares accepted parameters.
	Params map[string]ParamConfig `yaml:"params"`
	// Executor describes how the tool is executed.
	Executor ExecutorConfig `yaml:"executor"`
	// Approvers lists approval steps to run before admission.
	Approvers []ApproverConfig `yaml:"approvers"`
}

// ParamConfig defines validation rules for a tool parameter.
type ParamConfig struct {
	// Type is string, number, integer, boolean, array or object.
	Type string `yaml:"type"`
	// Description is shown in the MCP input schema.
	Description string `yaml:"description"`
	// Required rejects calls without the parameter.
	Required bool `yaml:"required"`
	// Regex validates string value format.
	Regex string `yaml:"regex"`
	// Enum restricts string values.
	Enum []string `yaml:"enum"`
	// Min sets numeric minimum.
	Min *float64 `yaml:"min"`
	// Max sets numeric maximum.
	Max *float64 `yaml:"max"`
	// MinLength sets string minimum length.
	MinLength *int `yaml:"min_length"`
	// MaxLength sets string maximum length.
	MaxLength *int `yaml:"max_length"`
}

// ExecutorConfig defines how to execute a tool.
type ExecutorConfig struct {
	// Type selects executor implementation (shell or http).
	Type string `yaml:"type"`
	// Command is the executable or shell command.
	Command string `yaml:"command"`
	// Args contains command arguments.
	Args []string `yaml:"args"`
	// Env adds environment variables for execution.
	Env map[string]string `yaml:"env"`
	// URL is the http executor endpoint.
	URL string `yaml:"url"`
	// Method overrides the http method.
	Method string `yaml:"method"`
	// Headers adds http headers.
	Headers map[string]string `yaml:"headers"`
	// Timeout is the http client timeout.
	Timeout string `yaml:"timeout"`
}

// HookConfig defines a startup hook command.
type HookConfig struct {
	// Command is the startup command to run.
	Command string `yaml:"command"`
	// Args are optional arguments.
	Args []string `yaml:"args"`
	// Env adds environment variables for the hook.
	Env map[string]string `yaml:"env"`
	// Timeout controls hook execution duration.
	Timeout string `yaml:"timeout"`
}

// ApproverConfig defines a single approver configuration.
type ApproverConfig struct {
	// Type selects approver implementation.
	Type string `yaml:"type"`
	// Name is a human-friendly approver name.
	Name string `yaml:"name"`
	// Timeout limits approver execution time.
	Timeout string `yaml:"timeout"`
	// URL defines HTTP approver endpoint.
	URL string `yaml:"url"`
	// Method overrides HTTP method.
	Method string `yaml:"method"`
	// Headers adds HTTP headers.
	Headers map[string]string `yaml:"headers"`
	// Command is a shell approver command.
	Command string `yaml:"command"`
	// Args are shell approver arguments.
	Args []string `yaml:"args"`
	// Env adds environment variables for the approver.
	Env map[string]string `yaml:"env"`
	// AllowExitCodes defines shell exit codes that approve.
	AllowExitCodes []int `yaml:"allow_exit_codes"`
	// MaxTotal limits total tool calls.
	MaxTotal int `yaml:"max_total"`
	// RatePerMinute limits requests per minute.
	RatePerMinute int `yaml:"rate_per_minute"`
	// Burst sets the rate limiter burst.
	Burst int `yaml:"burst"`
}

// IdempotencyConfig configures response caching for repeated tool calls.
type IdempotencyConfig struct {
	// Enabled toggles idempotency caching.
	Enabled bool `yaml:"enabled"`
	// TTL controls how long cached responses are kept.
	TTL string `yaml:"ttl"`
	// MaxEntries limits the cache size.
	MaxEntries int `yaml:"max_entries"`
	// KeyStrategy selects cache key strategy (correlation_id, arguments_hash, auto).
	KeyStrategy string `yaml:"key_strategy"`
}

// ToolAnnotationsConfig defines tool behavior hints.
type ToolAnnotationsConfig struct {
	// ReadOnlyHint indicates a read-only tool.
	ReadOnlyHint bool `yaml:"read_only_hint,omitempty"`
	// DestructiveHint indicates the tool may be destructive.
	DestructiveHint *bool `yaml:"destructive_hint,omitempty"`
	// IdempotentHint indicates repeated calls have no additional effect.
	IdempotentHint bool `yaml:"idempotent_hint,omitempty"`
	// OpenWorldHint indicates interaction with external entities.
	OpenWorldHint *bool `yaml:"open_world_hint,omitempty"`
	// Title is an optional tool display title.
	Title string `yaml:"title,omitempty"`
}
