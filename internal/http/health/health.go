package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
)

// Check reports a readiness problem as a non-nil error.
type Check func() error

// Handler serves liveness and readiness probes. Readiness requires SetReady
// and every registered check to pass.
type Handler struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks map[string]Check
}

// New returns a health handler instance.
func New() *Handler {
	return &Handler{checks: map[string]Check{}}
}

// SetReady marks the handler as ready.
func (h *Handler) SetReady() {
	h.ready.Store(true)
}

// SetNotReady marks the handler as not ready.
func (h *Handler) SetNotReady() {
	h.ready.Store(false)
}

// AddCheck registers a named readiness check, replacing one with the same name.
func (h *Handler) AddCheck(name string, check Check) {
	if check == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Healthz handles liveness probes.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz answers 200 when ready, otherwise 503 with the failing checks.
func (h *Handler) Readyz(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures()
	if h.ready.Load() && len(failures) == 0 {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	if !h.ready.Load() {
		failures["server"] = "not ready"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "not ready", "checks": failures})
}

func (h *Handler) failures() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := map[string]string{}
	for name, check := range h.checks {
		if err := check(); err != nil {
			out[name] = err.Error()
		}
	}
	return out
}
