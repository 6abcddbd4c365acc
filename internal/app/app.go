package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/dsl"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/http/health"
	"github.com/codex-k8s/yaml-tool-scheduler/internal/timeutil"
)

// App controls the HTTP server lifecycle.
type App struct {
	baseCtx         context.Context
	server          *http.Server
	health          *health.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New wires the MCP handler, health probes and extra routes into one server.
// A zero shutdownTimeout falls back to server.shutdown_timeout, then 10s.
func New(baseCtx context.Context, serverCfg dsl.ServerConfig, handler http.Handler, extra map[string]http.Handler, logger *slog.Logger, shutdownTimeout time.Duration) (*App, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is nil")
	}
	if baseCtx == nil {
		return nil, fmt.Errorf("base context is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	healthHandler := health.New()
	mux := http.NewServeMux()
	mux.Handle(serverCfg.HTTP.Path, handler)
	mux.HandleFunc("/healthz", healthHandler.Healthz)
	mux.HandleFunc("/readyz", healthHandler.Readyz)
	for path, route := range extra {
		if strings.TrimSpace(path) == "" || route == nil {
			continue
		}
		mux.Handle(path, route)
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = timeutil.OrDefault(serverCfg.ShutdownTimeout, 10*time.Second)
	}

	return &App{
		baseCtx: baseCtx,
		server: &http.Server{
			Addr:         serverCfg.HTTP.Listen,
			Handler:      mux,
			ReadTimeout:  timeutil.OrDefault(serverCfg.HTTP.ReadTimeout, 15*time.Second),
			WriteTimeout: timeutil.OrDefault(serverCfg.HTTP.WriteTimeout, 15*time.Second),
			IdleTimeout:  timeutil.OrDefault(serverCfg.HTTP.IdleTimeout, 60*time.Second),
		},
		health:          healthHandler,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Handler returns the routed handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// AddReadinessCheck makes /readyz fail while check returns an error.
func (a *App) AddReadinessCheck(name string, check health.Check) {
	a.health.AddCheck(name, check)
}

// Ready marks the readiness probe as passing.
func (a *App) Ready() {
	a.health.SetReady()
}

// Run starts the HTTP server and blocks until ctx is done or the server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.health.SetReady()
		a.logger.Info("http server started", "addr", a.server.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
		return a.shutdown()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.logger.Error("http server error", "error", err)
		return err
	}
}

func (a *App) shutdown() error {
	a.health.SetNotReady()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.baseCtx), a.shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("http server stopped")
	return nil
}
