package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/yaml-tool-scheduler/configs"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/app"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/audit"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/config"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/constants"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/dsl"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/http/stats"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/idempotency"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/log"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/runtime"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/scheduler"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/startup"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

func main() {
	embeddedConfig := flag.String("embedded-config", "", "Use embedded config from configs/ (e.g. "+configs.Example+")")
	list := flag.Bool("list", false, "Print registered tools and exit")
	category := flag.String("category", "", "Restrict -list to one category")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	dslCfg, err := loadDSL(cfg.ConfigPath, *embeddedConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol under stdio.
	var out io.Writer = os.Stdout
	if dslCfg.Server.Transport == constants.TransportStdio {
		out = os.Stderr
	}
	logger := log.New(cfg.LogLevel, cfg.LogFormat, out)

	settings, err := cfg.Resolve(dslCfg.Scheduler)
	if err != nil {
		logger.Error("resolve scheduler settings failed", "error", err)
		os.Exit(1)
	}

	registry := tool.NewRegistry(
		tool.WithDuplicatePolicy(settings.Duplicates),
		tool.WithReplaceHook(func(name string) {
			logger.Warn("tool declaration replaced", "tool", name)
		}),
	)
	if err := runtime.RegisterTools(registry, dslCfg.Tools); err != nil {
		logger.Error("register tools failed", "error", err)
		os.Exit(1)
	}

	if *list {
		printTools(os.Stdout, registry, *category)
		return
	}

	approvals, err := runtime.BuildApprovals(dslCfg.Tools)
	if err != nil {
		logger.Error("build approvers failed", "error", err)
		os.Exit(1)
	}

	auditLog := audit.New(logger)
	coordinator, err := scheduler.New(registry, settings.Scheduler,
		scheduler.WithGate(approvals),
		scheduler.WithAudit(auditLog),
		scheduler.WithLogger(logger),
	)
	if err != nil {
		logger.Error("create scheduler failed", "error", err)
		os.Exit(1)
	}
	logger.Info("scheduler ready",
		"tools", registry.Len(),
		"max_concurrent", settings.Scheduler.MaxConcurrent,
		"tool_timeout", settings.Scheduler.Timeout.String(),
		"default_priority", settings.Scheduler.DefaultPriority,
		"release_policy", settings.Scheduler.Release.String(),
		"duplicate_policy", settings.Duplicates.String())

	var cache *idempotency.Cache
	if dslCfg.Server.Idempotency.Enabled {
		ttl, err := time.ParseDuration(dslCfg.Server.Idempotency.TTL)
		if err != nil {
			logger.Error("invalid idempotency ttl", "error", err)
			os.Exit(1)
		}
		cache = idempotency.NewCache(ttl, dslCfg.Server.Idempotency.MaxEntries)
	}

	annotations := make(map[string]*dsl.ToolAnnotationsConfig, len(dslCfg.Tools))
	for _, t := range dslCfg.Tools {
		annotations[t.Name] = t.Annotations
	}
	builder := runtime.Builder{
		Logger:           logger,
		Audit:            auditLog,
		Scheduler:        coordinator,
		Cache:            cache,
		CacheKeyStrategy: dslCfg.Server.Idempotency.KeyStrategy,
		Annotations:      annotations,
	}
	server, err := builder.Build(dslCfg.Server, registry.ListAll())
	if err != nil {
		logger.Error("build server failed", "error", err)
		os.Exit(1)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		logger.Warn("shutdown requested", "signal", sig.String())
		cancel()
	}()

	if err := startup.Run(baseCtx, dslCfg.Server.StartupHooks, logger); err != nil {
		logger.Error("startup hooks failed", "error", err)
		os.Exit(1)
	}

	switch dslCfg.Server.Transport {
	case constants.TransportStdio:
		err = server.Run(baseCtx, &mcp.StdioTransport{})
	default:
		err = runHTTP(baseCtx, cfg, dslCfg, server, coordinator, logger)
	}
	if err != nil {
		logger.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

func loadDSL(path, embedded string) (*dsl.Config, error) {
	if embedded == "" {
		return dsl.LoadFile(path)
	}
	return dsl.LoadFS(configs.FS(), embedded)
}

func runHTTP(ctx context.Context, envCfg config.Config, dslCfg *dsl.Config, server *mcp.Server, coordinator *scheduler.Coordinator, logger *slog.Logger) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless: dslCfg.Server.HTTP.Stateless,
	})

	extra := map[string]http.Handler{"/stats": stats.Handler(coordinator.Stats)}
	application, err := app.New(ctx, dslCfg.Server, handler, extra, logger, envCfg.ShutdownTimeout)
	if err != nil {
		return err
	}
	application.AddReadinessCheck("scheduler", func() error {
		if faults := coordinator.Stats().Faults; faults > 0 {
			return fmt.Errorf("%d scheduler faults", faults)
		}
		return nil
	})
	return application.Run(ctx)
}

func printTools(w io.Writer, registry *tool.Registry, category string) {
	tools := registry.ListAll()
	if category != "" {
		tools = registry.ListByCategory(category)
	}
	for _, t := range tools {
		info := t.Info()
		label := info.Category
		if label == "" {
			label = "-"
		}
		line := fmt.Sprintf("%s\t%s\t%s", label, info.Name, info.Version)
		if info.Description != "" {
			line += "\t" + strings.TrimSpace(info.Description)
		}
		fmt.Fprintln(w, line)
	}
}
