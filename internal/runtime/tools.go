package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/approver"
	approverhttp "github.com/codex-k8s/yaml-tool-scheduler/internal/approver/http"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/approver/limits"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/approver/shell"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/constants"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/dsl"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/runtime/executor"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/timeutil"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

// declaredTool is a YAML-declared tool backed by a shell or http executor.
type declaredTool struct {
	info tool.Info
	exec executor.Executor
}

func (d *declaredTool) Info() tool.Info { return d.info }

func (d *declaredTool) Validate(params tool.Params) error {
	return d.info.Schema.Validate(params)
}

func (d *declaredTool) Execute(ctx context.Context, params tool.Params) (tool.Result, error) {
	req := executor.Request{ToolName: d.info.Name, Arguments: params.Any()}
	if call, ok := tool.CallFrom(ctx); ok {
		req.ExecutionID = call.ExecutionID
		req.SessionID = call.Context.SessionID
		req.UserID = call.Context.UserID
	}
	out, err := d.exec.Execute(ctx, req)
	if err != nil {
		return tool.Result{Payload: out}, err
	}
	return tool.Result{Success: true, Payload: out}, nil
}

// NewTool builds a registry tool from its YAML declaration.
func NewTool(cfg dsl.ToolConfig) (tool.Tool, error) {
	schema, err := buildSchema(cfg)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", cfg.Name, err)
	}
	exec, err := buildExecutor(cfg.Executor)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", cfg.Name, err)
	}
	return &declaredTool{
		info: tool.Info{
			Name:        cfg.Name,
			Category:    cfg.Category,
			Version:     cfg.Version,
			Title:       cfg.Title,
			Description: cfg.Description,
			Timeout:     timeutil.OrDefault(cfg.Timeout, 0),
			Schema:      schema,
		},
		exec: exec,
	}, nil
}

// RegisterTools adds every declared tool to registry, honoring its duplicate policy.
func RegisterTools(registry *tool.Registry, tools []dsl.ToolConfig) error {
	for _, cfg := range tools {
		t, err := NewTool(cfg)
		if err != nil {
			return err
		}
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func buildSchema(cfg dsl.ToolConfig) (*tool.Schema, error) {
	if len(cfg.Params) == 0 && !cfg.StrictParams {
		return nil, nil
	}
	fields := make(map[string]tool.Field, len(cfg.Params))
	for name, p := range cfg.Params {
		fields[name] = tool.Field{
			Type:        p.Type,
			Description: p.Description,
			Required:    p.Required,
			Regex:       p.Regex,
			Enum:        p.Enum,
			Min:         p.Min,
			Max:         p.Max,
			MinLength:   p.MinLength,
			MaxLength:   p.MaxLength,
		}
	}
	return tool.NewSchema(fields, cfg.StrictParams)
}

func buildExecutor(cfg dsl.ExecutorConfig) (executor.Executor, error) {
	switch cfg.Type {
	case constants.ExecutorShell:
		return executor.Shell{
			Command: cfg.Command,
			Args:    cfg.Args,
			Env:     cfg.Env,
		}, nil
	case constants.ExecutorHTTP:
		return executor.HTTP{
			URL:     cfg.URL,
			Method:  cfg.Method,
			Headers: cfg.Headers,
			Timeout: timeutil.OrDefault(cfg.Timeout, 0),
		}, nil
	default:
		return nil, fmt.Errorf("unknown executor type: %s", cfg.Type)
	}
}

// BuildApprovals returns a router holding one approval chain per tool that declares approvers.
// When several declarations share a name the last one wins, matching the override registry policy.
func BuildApprovals(tools []dsl.ToolConfig) (approver.Router, error) {
	router := approver.Router{Chains: map[string]approver.Chain{}}
	for _, cfg := range tools {
		if len(cfg.Approvers) == 0 {
			delete(router.Chains, cfg.Name)
			continue
		}
		chain, err := buildChain(cfg.Approvers)
		if err != nil {
			return approver.Router{}, fmt.Errorf("tool %s: %w", cfg.Name, err)
		}
		router.Chains[cfg.Name] = chain
	}
	return router, nil
}

func buildChain(configs []dsl.ApproverConfig) (approver.Chain, error) {
	items := make([]approver.Approver, 0, len(configs))
	for _, cfg := range configs {
		timeout := timeutil.OrDefault(cfg.Timeout, 0)
		switch cfg.Type {
		case constants.ApproverHTTP:
			items = append(items, wrapTimeout(approverhttp.Client{
				Label:   cfg.Name,
				URL:     cfg.URL,
				Method:  cfg.Method,
				Headers: cfg.Headers,
				Timeout: timeutil.OrDefault(cfg.Timeout, 10*time.Second),
			}, timeout))
		case constants.ApproverShell:
			items = append(items, wrapTimeout(shell.Approver{
				Label:          cfg.Name,
				Command:        cfg.Command,
				Args:           cfg.Args,
				Env:            cfg.Env,
				AllowExitCodes: cfg.AllowExitCodes,
			}, timeout))
		case constants.ApproverLimits:
			item, err := limits.New(cfg.Name, cfg.MaxTotal, cfg.RatePerMinute, cfg.Burst)
			if err != nil {
				return approver.Chain{}, err
			}
			items = append(items, wrapTimeout(item, timeout))
		default:
			return approver.Chain{}, fmt.Errorf("unknown approver type: %s", cfg.Type)
		}
	}
	return approver.Chain{Approvers: items}, nil
}

func wrapTimeout(item approver.Approver, timeout time.Duration) approver.Approver {
	if timeout <= 0 {
		return item
	}
	return approver.Timeout{Inner: item, Timeout: timeout}
}
