package stats_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/http/stats"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/scheduler"
)

func TestHandler(t *testing.T) {
	h := stats.Handler(func() scheduler.Stats {
		return scheduler.Stats{InFlight: 2, Backlog: 5, Max: 4, Peak: 4, Completed: 10}
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected response %d %v", rec.Code, rec.Header())
	}
	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["in_flight"] != 2 || got["backlog"] != 5 || got["max_concurrent"] != 4 || got["completed"] != 10 {
		t.Fatalf("unexpected body %v", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stats", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST allowed: %d", rec.Code)
	}
}
