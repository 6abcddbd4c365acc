package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DuplicatePolicy decides what Register does with an already registered name.
type DuplicatePolicy int

const (
	// DuplicateOverride replaces the previous registration (last write wins).
	DuplicateOverride DuplicatePolicy = iota
	// DuplicateReject returns ErrAlreadyExists.
	DuplicateReject
)

// ParseDuplicatePolicy parses "override" or "reject". Empty means override.
func ParseDuplicatePolicy(value string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "override":
		return DuplicateOverride, nil
	case "reject":
		return DuplicateReject, nil
	default:
		return DuplicateOverride, fmt.Errorf("unknown duplicate policy: %s", value)
	}
}

// String returns the config name of the policy.
func (p DuplicatePolicy) String() string {
	if p == DuplicateReject {
		return "reject"
	}
	return "override"
}

// Registry maps tool names to implementations.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	policy   DuplicatePolicy
	replaced func(name string)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDuplicatePolicy sets how duplicate names are handled.
func WithDuplicatePolicy(policy DuplicatePolicy) RegistryOption {
	return func(r *Registry) { r.policy = policy }
}

// WithReplaceHook is called with the tool name whenever an override replaces a registration.
func WithReplaceHook(hook func(name string)) RegistryOption {
	return func(r *Registry) { r.replaced = hook }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{tools: map[string]Tool{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts t keyed by its name. Under DuplicateReject an existing
// name yields ErrAlreadyExists; under DuplicateOverride the new tool wins.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return ErrNilTool
	}
	name := t.Info().Name
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	_, exists := r.tools[name]
	if exists && r.policy == DuplicateReject {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	r.tools[name] = t
	r.mu.Unlock()

	if exists && r.replaced != nil {
		r.replaced(name)
	}
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the tool registered under name or ErrNotFound.
func (r *Registry) Lookup(name string) (Tool, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// ListAll returns every registered tool sorted by name.
func (r *Registry) ListAll() []Tool {
	return r.list(func(Tool) bool { return true })
}

// ListByCategory returns tools whose category matches, sorted by name.
func (r *Registry) ListByCategory(category string) []Tool {
	return r.list(func(t Tool) bool { return t.Info().Category == category })
}

// Categories returns the distinct categories in sorted order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, t := range r.tools {
		seen[t.Info().Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for category := range seen {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Names returns a sorted list of registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func (r *Registry) list(keep func(Tool) bool) []Tool {
	r.mu.RLock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		if keep(t) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Info().Name < out[j].Info().Name
	})
	return out
}
