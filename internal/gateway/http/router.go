package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/courtside/internal/gateway/dispatch"
	"github.com/aussiebroadwan/courtside/internal/gateway/health"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
	"github.com/aussiebroadwan/courtside/pkg/metricsx"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
)

// ServiceName is reported by /health.
const ServiceName = "api-gateway"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	dispatchRoute http.Handler

	dispatcher   *dispatch.Dispatcher
	aggregator   *health.Aggregator
	trusted      httpx.TrustedProxies
	backends     []string
	metrics      *metricsx.Metrics
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
}

func NewRouter(
	dispatcher *dispatch.Dispatcher,
	aggregator *health.Aggregator,
	backends []string,
	trusted httpx.TrustedProxies,
	metrics *metricsx.Metrics,
	buildVersion string,
	production bool,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		dispatcher:   dispatcher,
		aggregator:   aggregator,
		backends:     backends,
		trusted:      trusted,
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

	r.registerDispatch()
	r.registerSystem()
	return r
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(http.HandlerFunc(r.route), r.middlewares...).ServeHTTP(w, req)
}

// route hands /api/v1/<backend>... to the dispatcher ahead of ServeMux, which
// would redirect paths containing "//", "." or ".." segments.
func (r *Router) route(w http.ResponseWriter, req *http.Request) {
	if len(req.URL.Path) > len(dispatch.Prefix) && strings.HasPrefix(req.URL.Path, dispatch.Prefix) {
		r.dispatchRoute.ServeHTTP(w, req)
		return
	}
	r.Mux.ServeHTTP(w, req)
}

func (r *Router) registerDispatch() {
	h := httpx.Chain(r.dispatcher, r.metrics.Middleware, httpx.RateLimitByClientIP(httpx.GatewayLimit, r.trusted))

	r.dispatchRoute = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		pattern := dispatch.Prefix + "{backend}"
		if strings.Contains(strings.TrimPrefix(req.URL.Path, dispatch.Prefix), "/") {
			pattern += "/{rest...}"
		}
		req = req.WithContext(req.Context())
		req.Pattern = pattern
		h.ServeHTTP(w, req)
	})
}

func (r *Router) registerSystem() {
	probe := func(h http.Handler) http.Handler {
		return httpx.Chain(h, r.metrics.Middleware, httpx.RateLimitByClientIP(httpx.PublicLimit, r.trusted))
	}

	r.Mux.Handle("GET /{$}", probe(IndexHandler(r.buildVersion, r.backends)))
	r.Mux.Handle("GET /services/status", probe(r.aggregator.Handler()))
	r.Mux.Handle("GET /health", probe(HealthHandler(r.buildVersion)))
	r.Mux.Handle("GET /livez", probe(LivezHandler(r.startTime, r.buildVersion)))
	r.Mux.Handle("GET /readyz", probe(ReadyzHandler(r.startTime, r.buildVersion)))
	r.Mux.Handle("GET /metrics", r.metrics.Handler())

	r.Mux.Handle("/", probe(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, httpx.KindNotFound, "no route for "+req.URL.Path)
	})))
}
