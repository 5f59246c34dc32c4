package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/courtside/pkg/authsdk"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
)

type indexResponse struct {
	Message  string   `json:"message"`
	Version  string   `json:"version"`
	Services []string `json:"services"`
}

// IndexHandler names the gateway and the backends it routes to.
func IndexHandler(version string, backends []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, indexResponse{
			Message:  "courtside api gateway",
			Version:  version,
			Services: backends,
		})
	}
}

func HealthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "healthy",
			Service: ServiceName,
			Version: version,
		})
	}
}

func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler is ready as soon as the registry is built. Backend health
// is reported separately by /services/status and never gates readiness.
func ReadyzHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  map[string]string{"registry": "ok"},
		})
	}
}
