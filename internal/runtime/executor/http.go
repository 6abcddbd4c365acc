package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/protocol"
)

// maxResponseBytes bounds the executor response body.
const maxResponseBytes = 1 << 20

// ErrResponseTooLarge is returned when the executor body exceeds maxResponseBytes.
var ErrResponseTooLarge = errors.New("executor response too large")

// HTTP calls an external HTTP executor.
type HTTP struct {
	// URL is the executor endpoint.
	URL string
	// Method overrides HTTP method.
	Method string
	// Headers adds HTTP headers.
	Headers map[string]string
	// Timeout is the HTTP client timeout.
	Timeout time.Duration
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Execute sends the execution request to the external executor and parses the result.
// A body with a status field is read as protocol.ExecutorResponse; any other 2xx body
// is returned as text.
func (h HTTP) Execute(ctx context.Context, req Request) (any, error) {
	if strings.TrimSpace(h.URL) == "" {
		return nil, errors.New("executor url is empty")
	}

	timeoutSec := 0
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			timeoutSec = max(int(remaining.Seconds()), 1)
		}
	}

	body, err := json.Marshal(protocol.ExecutorRequest{
		ExecutionID: req.ExecutionID,
		Tool:        req.ToolName,
		Arguments:   req.Arguments,
		TimeoutSec:  timeoutSec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	method := strings.ToUpper(strings.TrimSpace(h.Method))
	if method == "" {
		method = http.MethodPost
	}
	request, err := http.NewRequestWithContext(ctx, method, h.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	for key, value := range h.Headers {
		request.Header.Set(key, value)
	}

	client := h.Client
	if client == nil {
		clientTimeout := h.Timeout
		if clientTimeout <= 0 {
			clientTimeout = 10 * time.Second
		}
		client = &http.Client{Timeout: clientTimeout}
	}

	resp, err := client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("executor request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read executor response: %w", err)
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, maxResponseBytes)
	}
	trimmed := strings.TrimSpace(string(data))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("executor status %d: %s", resp.StatusCode, trimmed)
	}

	var parsed protocol.ExecutorResponse
	if err := json.Unmarshal(data, &parsed); err == nil && strings.TrimSpace(parsed.Status) != "" {
		switch status := strings.ToLower(strings.TrimSpace(parsed.Status)); status {
		case protocol.StatusSuccess:
			return parsed.Result, nil
		case protocol.StatusError:
			msg := stringifyResult(parsed.Result)
			if msg == "" {
				msg = "executor error"
			}
			return parsed.Result, errors.New(msg)
		default:
			return nil, fmt.Errorf("unknown executor status: %s", status)
		}
	}
	return trimmed, nil
}

func stringifyResult(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}
		return strings.TrimSpace(string(data))
	}
}
