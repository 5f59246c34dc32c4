package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/courtside/internal/gateway/dispatch"
	"github.com/aussiebroadwan/courtside/internal/gateway/health"
	httpapi "github.com/aussiebroadwan/courtside/internal/gateway/http"
	"github.com/aussiebroadwan/courtside/internal/gateway/registry"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
	"github.com/aussiebroadwan/courtside/pkg/metricsx"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
)

// BuildVersion may be overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application wires the gateway together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	aggregator *health.Aggregator
	metrics    *metricsx.Metrics

	server *http.Server
	router *httpapi.Router
}

// New builds the registry and every handler. No backend is contacted.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: httpapi.ServiceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metricsx.New("gateway"),
	}

	backends := cfg.Backends
	if len(backends) == 0 {
		backends = registry.Defaults()
	}
	reg, err := registry.New(backends)
	if err != nil {
		return nil, fmt.Errorf("failed to build backend registry: %w", err)
	}
	app.registry = reg

	for _, t := range reg.All() {
		app.logger.Info("backend registered",
			"backend", t.Name,
			"url", t.BaseURL.String(),
			"timeout", t.Timeout,
			"health_path", t.HealthPath,
		)
	}

	trusted, err := httpx.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	app.dispatcher = dispatch.New(reg, cfg.MaxBodyBytes, app.metrics.Registerer())
	app.aggregator = health.New(reg.All(), cfg.ProbeTimeout, app.metrics.Registerer())

	app.router = httpapi.NewRouter(
		app.dispatcher,
		app.aggregator,
		reg.Names(),
		trusted,
		app.metrics,
		BuildVersion,
		cfg.IsProduction(),
		app.logger,
	)

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return app, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (app *Application) Run(ctx context.Context) error {
	app.logger.Info("api gateway starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight dispatches.
func (app *Application) Shutdown(ctx context.Context) error {
	app.logger.Info("shutting down api gateway...")

	err := app.server.Shutdown(ctx)
	if err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if cerr := app.server.Close(); cerr != nil {
			app.logger.Error("error closing server", "error", cerr)
		}
	}
	app.registry.CloseIdleConnections()

	app.logger.Info("api gateway stopped")
	return err
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }
