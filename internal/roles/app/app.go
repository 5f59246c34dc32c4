package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	httpapi "github.com/aussiebroadwan/courtside/internal/roles/http"
	"github.com/aussiebroadwan/courtside/internal/roles/service"
	"github.com/aussiebroadwan/courtside/internal/roles/store"
	"github.com/aussiebroadwan/courtside/internal/roles/store/drivers/sqlite"
	"github.com/aussiebroadwan/courtside/pkg/authn"
	"github.com/aussiebroadwan/courtside/pkg/authsdk"
	"github.com/aussiebroadwan/courtside/pkg/authz"
	"github.com/aussiebroadwan/courtside/pkg/jwtx"
	"github.com/aussiebroadwan/courtside/pkg/metricsx"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
)

// BuildVersion may be overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application wires the roles service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	engine   *authz.Engine
	verifier authn.Verifier
	metrics  *metricsx.Metrics

	rolesService     *service.RolesService
	checkService     *service.CheckService
	bootstrapService *service.BootstrapService

	server *http.Server
	router *httpapi.Router
}

// New builds every dependency. It talks to the identity service only when
// the jwt verifier needs its key set.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: httpapi.ServiceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metricsx.New("roles"),
	}
	ctx = slogx.WithContext(ctx, app.logger)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initAuth(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initServices(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (app *Application) Run(ctx context.Context) error {
	app.logger.Info("roles service starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown stops the server and closes the store. The first failure is
// returned; later steps still run.
func (app *Application) Shutdown(ctx context.Context) error {
	app.logger.Info("shutting down roles service...")

	err := app.server.Shutdown(ctx)
	if err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if cerr := app.server.Close(); cerr != nil {
			app.logger.Error("error closing server", "error", cerr)
		}
	}

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error("error closing database", "error", cerr)
		if err == nil {
			err = cerr
		}
	}

	app.logger.Info("roles service stopped")
	return err
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) initDatabase() error {
	dsn := app.cfg.DatabaseFile
	if dsn != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", dsn)
	}
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initAuth(ctx context.Context) error {
	client := authsdk.NewClient(app.cfg.AuthURL, app.cfg.AuthTimeout)

	var base authn.Verifier
	switch strings.ToLower(app.cfg.Verifier) {
	case "jwt":
		keys := jwtx.NewKeySet()
		if err := authn.LoadKeys(ctx, client, keys); err != nil {
			return fmt.Errorf("failed to load identity keys: %w", err)
		}
		base = authn.NewJWT(keys, jwtx.VerifyOptions{
			Issuer:   app.cfg.JWTIssuer,
			Audience: app.cfg.JWTAudience,
			Leeway:   30 * time.Second,
		})
	default:
		base = authn.NewRemote(client)
	}

	app.verifier = authn.Build(base, app.cfg.VerifierCacheTTL, app.cfg.VerifierCacheSize)
	app.logger.Info("credential verifier ready",
		"verifier", app.cfg.Verifier,
		"auth_url", app.cfg.AuthURL,
		"cache_ttl", app.cfg.VerifierCacheTTL,
	)

	var opts []authz.Option
	if app.cfg.FailOpen {
		app.logger.Warn("authorization configured to fail open")
		opts = append(opts, authz.WithFailOpen())
	}
	engine, err := authz.NewEngine(app.db, opts...)
	if err != nil {
		return err
	}
	app.engine = engine
	return nil
}

func (app *Application) initServices(ctx context.Context) error {
	app.rolesService = service.NewRolesService(app.db)
	app.checkService = service.NewCheckService(app.engine)
	app.bootstrapService = &service.BootstrapService{
		Store:     app.db,
		AdminUser: app.cfg.BootstrapAdminUser,
	}

	if !app.cfg.Seed {
		return nil
	}
	if _, err := app.bootstrapService.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		app.engine,
		app.db,
		app.metrics,
		BuildVersion,
		app.cfg.IsProduction(),
		app.logger,
	)
	router.RolesService = app.rolesService
	router.CheckService = app.checkService
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
