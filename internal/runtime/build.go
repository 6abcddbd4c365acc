package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/audit"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/constants"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/dsl"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/idempotency"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/protocol"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/scheduler"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/security"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/timeutil"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

// Reserved input keys are routed to the request instead of the tool params.
const (
	keyPriority       = "priority"
	keySessionID      = "session_id"
	keyUserID         = "user_id"
	keyCorrelationID  = "correlation_id"
	keyRequestID      = "request_id"
	keyResponseFormat = "response_format"
)

// Submitter schedules tool calls. *scheduler.Coordinator satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req scheduler.Request) (tool.Result, error)
}

// Builder constructs an MCP server exposing registry tools through the scheduler.
type Builder struct {
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Audit records cache events.
	Audit audit.Logger
	// Scheduler runs tool calls.
	Scheduler Submitter
	// Cache stores idempotent responses.
	Cache *idempotency.Cache
	// CacheKeyStrategy selects how cache keys are computed.
	CacheKeyStrategy string
	// Annotations holds optional hints per tool name.
	Annotations map[string]*dsl.ToolAnnotationsConfig
}

// Build creates an MCP server with one tool per registry entry.
func (b Builder) Build(server dsl.ServerConfig, tools []tool.Tool) (*mcp.Server, error) {
	if b.Scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    server.Name,
		Version: server.Version,
	}, nil)

	for _, t := range tools {
		info := t.Info()
		mcp.AddTool(srv, &mcp.Tool{
			Name:        info.Name,
			Title:       info.Title,
			Description: info.Description,
			InputSchema: inputSchema(info.Schema),
			Annotations: buildAnnotations(b.Annotations[info.Name]),
		}, func(ctx context.Context, _ *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, protocol.ToolResponse, error) {
			return nil, b.Call(ctx, info.Name, input), nil
		})
	}
	return srv, nil
}

// Call runs one MCP tool invocation: reserved keys are split off, the
// idempotency cache is consulted and the request is submitted.
func (b Builder) Call(ctx context.Context, name string, input map[string]any) protocol.ToolResponse {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	call, err := splitInput(name, input)
	if err != nil {
		resp := protocol.ToolResponse{
			Status:        protocol.StatusRejected,
			Kind:          string(tool.KindInvalidParameters),
			Message:       "invalid parameters",
			Errors:        []string{err.Error()},
			CorrelationID: call.req.CorrelationID,
		}
		applyResponseFormat(call.format, &resp)
		return resp
	}

	logger.Info("tool call",
		"tool", name,
		"correlation_id", call.req.CorrelationID,
		"priority", call.req.Priority,
		"args", security.RedactParams(call.req.Params))

	cacheKey := ""
	if b.Cache != nil {
		key, err := buildCacheKey(name, call.req.CorrelationID, call.providedID, call.req.Params, b.CacheKeyStrategy)
		if err != nil {
			logger.Warn("cache key build failed", "tool", name, "error", err)
		}
		cacheKey = key
	}
	if cacheKey != "" {
		if cached, ok := b.Cache.Get(cacheKey); ok {
			cached.CorrelationID = call.req.CorrelationID
			cached.Cached = true
			b.record(ctx, audit.EventCacheHit, name, cached)
			applyResponseFormat(call.format, &cached)
			return cached
		}
	}

	res, err := b.Scheduler.Submit(ctx, call.req)
	if err != nil {
		logger.Debug("tool call ended with error", "tool", name, "kind", res.Kind, "error", err)
	}
	resp := toResponse(res, call.req.CorrelationID)

	if cacheKey != "" && res.Success {
		b.Cache.Set(cacheKey, resp)
		b.record(ctx, audit.EventCacheStore, name, resp)
	}
	applyResponseFormat(call.format, &resp)
	return resp
}

func (b Builder) record(ctx context.Context, eventType, name string, resp protocol.ToolResponse) {
	if b.Audit == nil {
		return
	}
	b.Audit.Record(ctx, audit.Event{
		Type:          eventType,
		Tool:          name,
		ExecutionID:   resp.ExecutionID,
		CorrelationID: resp.CorrelationID,
		Priority:      resp.Priority,
	})
}

type splitCall struct {
	req        scheduler.Request
	providedID bool
	format     string
}

// splitInput separates reserved keys from tool params.
func splitInput(name string, input map[string]any) (splitCall, error) {
	out := splitCall{req: scheduler.Request{
		Tool:    name,
		Context: tool.CallContext{Timestamp: time.Now().UTC()},
	}}
	rest := make(map[string]any, len(input))
	for key, value := range input {
		switch key {
		case keyCorrelationID, keyRequestID, keySessionID, keyUserID, keyResponseFormat, keyPriority:
		default:
			rest[key] = value
		}
	}

	out.req.CorrelationID, out.providedID = correlationID(input)
	out.req.Context.SessionID = stringArg(input, keySessionID)
	out.req.Context.UserID = stringArg(input, keyUserID)
	out.format = strings.ToLower(stringArg(input, keyResponseFormat))

	if raw, ok := input[keyPriority]; ok && raw != nil {
		priority, err := priorityArg(raw)
		if err != nil {
			return out, err
		}
		out.req.Priority = priority
	}

	params, err := tool.ParamsFrom(rest)
	if err != nil {
		return out, err
	}
	out.req.Params = params
	return out, nil
}

func priorityArg(raw any) (int, error) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	default:
		return 0, fmt.Errorf("priority must be an integer, got %T", raw)
	}
	if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, fmt.Errorf("priority must be an integer, got %v", n)
	}
	return int(n), nil
}

func stringArg(args map[string]any, key string) string {
	raw, ok := args[key]
	if !ok || raw == nil {
		return ""
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}

func correlationID(args map[string]any) (string, bool) {
	if id := stringArg(args, keyCorrelationID); id != "" {
		return id, true
	}
	if id := stringArg(args, keyRequestID); id != "" {
		return id, true
	}
	return "corr-" + uuid.NewString(), false
}

func toResponse(res tool.Result, correlationID string) protocol.ToolResponse {
	resp := protocol.ToolResponse{
		Kind:          string(res.Kind),
		Message:       res.Message,
		Payload:       res.Payload,
		Errors:        res.Errors,
		DurationMS:    timeutil.Millis(res.Duration),
		WaitedMS:      timeutil.Millis(res.Waited),
		Priority:      res.Priority,
		ExecutionID:   res.ExecutionID,
		CorrelationID: correlationID,
	}
	switch {
	case res.Success:
		resp.Status = protocol.StatusSuccess
	case res.Kind.Rejected():
		resp.Status = protocol.StatusRejected
	case res.Kind == tool.KindTimeout:
		resp.Status = protocol.StatusTimeout
	default:
		resp.Status = protocol.StatusError
	}
	return resp
}

// inputSchema publishes the tool params plus the reserved keys.
func inputSchema(schema *tool.Schema) map[string]any {
	out := schema.JSONSchema()
	properties := out["properties"].(map[string]any)
	reserved := map[string]map[string]any{
		keyPriority:       {"type": "integer", "description": "Scheduling priority, higher runs first. Omit for the default."},
		keySessionID:      {"type": "string", "description": "Caller session identifier."},
		keyUserID:         {"type": "string", "description": "Caller identifier."},
		keyCorrelationID:  {"type": "string", "description": "Client request identifier, also used as idempotency key."},
		keyResponseFormat: {"type": "string", "enum": []string{constants.ResponseFormatJSON, constants.ResponseFormatMarkdown}},
	}
	for key, prop := range reserved {
		if _, taken := properties[key]; !taken {
			properties[key] = prop
		}
	}
	return out
}

func applyResponseFormat(format string, resp *protocol.ToolResponse) {
	if format != constants.ResponseFormatMarkdown {
		return
	}
	message := strings.TrimSpace(resp.Message)
	if message == "" {
		message = "no details"
	}
	var details strings.Builder
	for _, item := range resp.Errors {
		details.WriteString("\n- ")
		details.WriteString(item)
	}
	resp.Message = fmt.Sprintf("**status**: %s\n**kind**: %s\n\n%s%s", resp.Status, kindLabel(resp.Kind), message, details.String())
}

func kindLabel(kind string) string {
	if kind == "" {
		return "ok"
	}
	return kind
}

func buildAnnotations(cfg *dsl.ToolAnnotationsConfig) *mcp.ToolAnnotations {
	if cfg == nil {
		return nil
	}
	return &mcp.ToolAnnotations{
		ReadOnlyHint:    cfg.ReadOnlyHint,
		DestructiveHint: cfg.DestructiveHint,
		IdempotentHint:  cfg.IdempotentHint,
		OpenWorldHint:   cfg.OpenWorldHint,
		Title:           cfg.Title,
	}
}
