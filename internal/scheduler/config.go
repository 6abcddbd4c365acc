package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// ReleasePolicy decides when a timed-out execution gives back its capacity slot.
type ReleasePolicy int

const (
	// ReleaseOnTimeout frees the slot as soon as the timeout fires. The tool's
	// context is cancelled; a tool that ignores it keeps running outside the bound.
	ReleaseOnTimeout ReleasePolicy = iota
	// ReleaseOnReturn reports the timeout to the caller at once but holds the
	// slot until the abandoned function returns.
	ReleaseOnReturn
)

// ParseReleasePolicy parses "release_on_timeout" or "release_on_return". Empty means release_on_timeout.
func ParseReleasePolicy(value string) (ReleasePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "release_on_timeout", "on_timeout":
		return ReleaseOnTimeout, nil
	case "release_on_return", "on_return":
		return ReleaseOnReturn, nil
	default:
		return ReleaseOnTimeout, fmt.Errorf("unknown release policy: %s", value)
	}
}

// String returns the config name of the policy.
func (p ReleasePolicy) String() string {
	if p == ReleaseOnReturn {
		return "release_on_return"
	}
	return "release_on_timeout"
}

const (
	defaultMaxConcurrent = 4
	defaultTimeout       = 30 * time.Second
	// DefaultPriority is the mid-range priority used when a request leaves it at zero.
	DefaultPriority = 5
)

// Config holds the scheduler settings read once at startup.
type Config struct {
	// MaxConcurrent bounds in-flight executions.
	MaxConcurrent int
	// Timeout bounds each execution unless the tool overrides it.
	Timeout time.Duration
	// DefaultPriority replaces a zero request priority.
	DefaultPriority int
	// Release selects when timed-out executions free their slot.
	Release ReleasePolicy
}

// DefaultConfig returns the scheduler defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:   defaultMaxConcurrent,
		Timeout:         defaultTimeout,
		DefaultPriority: DefaultPriority,
		Release:         ReleaseOnTimeout,
	}
}

// Validate reports settings the coordinator cannot run with.
func (c Config) Validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("%w: max concurrent must be >= 1, got %d", ErrInvalidConfig, c.MaxConcurrent)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout)
	}
	if c.DefaultPriority == 0 {
		return fmt.Errorf("%w: default priority must be non-zero", ErrInvalidConfig)
	}
	return nil
}
