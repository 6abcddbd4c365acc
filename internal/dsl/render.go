package dsl

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"
)

// envTracker records env vars referenced by the template that are not set.
type envTracker struct {
	missing map[string]struct{}
}

func (t *envTracker) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		if t.missing == nil {
			t.missing = map[string]struct{}{}
		}
		t.missing[key] = struct{}{}
	}
	return value, ok
}

func (t *envTracker) err() error {
	if len(t.missing) == 0 {
		return nil
	}
	keys := make([]string, 0, len(t.missing))
	for key := range t.missing {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return fmt.Errorf("missing env vars: %s", strings.Join(keys, ", "))
}

func funcMap(tracker *envTracker) template.FuncMap {
	return template.FuncMap{
		"env": func(key string) string {
			value, _ := tracker.lookup(key)
			return value
		},
		"envOr": func(key, def string) string {
			if value, ok := os.LookupEnv(key); ok {
				return value
			}
			return def
		},
		"default": func(def, value string) string {
			if value == "" {
				return def
			}
			return value
		},
		"lower":   strings.ToLower,
		"upper":   strings.ToUpper,
		"replace": strings.ReplaceAll,
	}
}

// Render executes raw as a text/template. References to unset variables
// through env fail rendering with every missing name listed.
func Render(name string, raw []byte) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		name = "config"
	}
	tracker := &envTracker{}
	tmpl, err := template.New(name).Funcs(funcMap(tracker)).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	execErr := tmpl.Execute(&buf, map[string]any{})
	if err := tracker.err(); err != nil {
		return nil, err
	}
	if execErr != nil {
		return nil, fmt.Errorf("render template: %w", execErr)
	}
	return buf.Bytes(), nil
}
