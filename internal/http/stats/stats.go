// Package stats serves the scheduler counters as JSON.
package stats

import (
	"encoding/json"
	"net/http"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/scheduler"
)

// Source returns a scheduling snapshot. (*scheduler.Coordinator).Stats satisfies it.
type Source func() scheduler.Stats

// Handler returns GET-only JSON output of source.
func Handler(source Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(source())
	})
}
