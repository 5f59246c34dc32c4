package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/courtside/pkg/authsdk"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
)

// ServiceName is reported by /health.
const ServiceName = "roles-service"

// Pinger is satisfied by the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers the platform-wide GET /health probe the gateway
// aggregates.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "healthy",
			Service: ServiceName,
		})
	}
}

// LivezHandler always returns 200 while the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler reports 503 until the database answers.
func ReadyzHandler(startTime time.Time, version string, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"database": "ok"}
		status, code := "ok", http.StatusOK

		if err := db.Ping(r.Context()); err != nil {
			checks["database"] = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
