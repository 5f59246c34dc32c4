package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/courtside/internal/roles/service"
	"github.com/aussiebroadwan/courtside/pkg/authz"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
	"github.com/aussiebroadwan/courtside/pkg/metricsx"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     httpx.Verifier
	engine       *authz.Engine
	db           Pinger
	metrics      *metricsx.Metrics
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	RolesService *service.RolesService
	CheckService *service.CheckService
}

func NewRouter(
	verifier httpx.Verifier,
	engine *authz.Engine,
	db Pinger,
	metrics *metricsx.Metrics,
	buildVersion string,
	production bool,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		engine:       engine,
		db:           db,
		metrics:      metrics,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
		httpx.SecurityHeaders(production),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerCheck()
	r.registerRoles()
	r.registerPermissions()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured is the chain for authenticated routes. chk may be nil for routes
// that only need a verified caller.
func (r *Router) secured(h http.Handler, limit httpx.RateLimitConfig, chk *authz.Check) http.Handler {
	mws := []httpx.Middleware{
		r.metrics.Middleware,
		httpx.AuthnMiddleware(r.verifier),
	}
	if chk != nil {
		mws = append(mws, httpx.RequirePermission(r.engine, *chk))
	}
	mws = append(mws, httpx.RateLimitBySubject(limit))
	return httpx.Chain(h, mws...)
}

func need(resource string, actions ...string) *authz.Check {
	c := authz.Need(resource, actions...)
	return &c
}

func needExplicit(resource string, actions ...string) *authz.Check {
	c := authz.Need(resource, actions...).Explicit()
	return &c
}

func (r *Router) registerCheck() {
	h := &CheckHandler{CheckService: r.CheckService}

	// Any authenticated caller may ask about themselves.
	r.Mux.Handle("POST /api/v1/permissions/check", r.secured(h, httpx.ModerateLimit, nil))
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RolesService: r.RolesService}

	r.Mux.Handle("POST /api/v1/roles",
		r.secured(http.HandlerFunc(h.HandleCreate), httpx.StrictLimit, needExplicit("roles", "create")))
	r.Mux.Handle("GET /api/v1/roles",
		r.secured(http.HandlerFunc(h.HandleList), httpx.ModerateLimit, need("roles", "view")))
	r.Mux.Handle("POST /api/v1/roles/assign",
		r.secured(http.HandlerFunc(h.HandleAssign), httpx.StrictLimit, needExplicit("roles", "assign")))
	r.Mux.Handle("POST /api/v1/roles/{id}/permissions",
		r.secured(http.HandlerFunc(h.HandleGrant), httpx.StrictLimit, needExplicit("roles", "grant")))
}

func (r *Router) registerPermissions() {
	h := &PermissionsHandler{RolesService: r.RolesService}

	r.Mux.Handle("POST /api/v1/permissions",
		r.secured(http.HandlerFunc(h.HandleCreate), httpx.StrictLimit, needExplicit("permissions", "create")))
	r.Mux.Handle("GET /api/v1/permissions",
		r.secured(http.HandlerFunc(h.HandleList), httpx.ModerateLimit, need("permissions", "view")))
}

func (r *Router) registerUsers() {
	// Self-or-permission gate lives in the handler.
	h := &UserPermissionsHandler{RolesService: r.RolesService, Enforcer: r.engine}
	r.Mux.Handle("GET /api/v1/users/{id}/permissions", r.secured(h, httpx.ModerateLimit, nil))
}

func (r *Router) registerSystem() {
	probe := func(h http.Handler) http.Handler {
		return httpx.Chain(h, r.metrics.Middleware, httpx.RateLimitByIP(httpx.PublicLimit))
	}

	r.Mux.Handle("GET /health", probe(HealthHandler()))
	r.Mux.Handle("GET /livez", probe(LivezHandler(r.startTime, r.buildVersion)))
	r.Mux.Handle("GET /readyz", probe(ReadyzHandler(r.startTime, r.buildVersion, r.db)))
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
