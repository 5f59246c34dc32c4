package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/courtside/internal/gateway/registry"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.EqualValues(t, 10<<20, cfg.MaxBodyBytes)
	require.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	require.Equal(t, registry.Defaults(), cfg.Backends)
}

func TestLoadConfigBackendOverrides(t *testing.T) {
	t.Setenv("GATEWAY_PORT", "9000")
	t.Setenv("GATEWAY_BACKEND_ROLES_URL", "http://roles_service:8001")
	t.Setenv("GATEWAY_BACKEND_FIELDS_TIMEOUT", "2s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)

	byName := map[string]registry.Backend{}
	for _, b := range cfg.Backends {
		byName[b.Name] = b
	}
	require.Equal(t, "http://roles_service:8001", byName["roles"].URL)
	require.Equal(t, 2*time.Second, byName["fields"].Timeout)
	require.Equal(t, registry.DefaultTimeout, byName["auth"].Timeout)
}

func TestLoadConfigBackendsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backends:
  - name: fields
    url: http://fields:8002
    timeout: 4s
`), 0o600))
	t.Setenv("GATEWAY_BACKENDS_FILE", path)
	t.Setenv("GATEWAY_BACKEND_FIELDS_URL", "http://fields-canary:8002")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []registry.Backend{{
		Name: "fields", URL: "http://fields-canary:8002", Timeout: 4 * time.Second, HealthPath: "/health",
	}}, cfg.Backends)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("GATEWAY_MAX_BODY_BYTES", "0")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigTrustedProxies(t *testing.T) {
	t.Setenv("GATEWAY_TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)

	t.Setenv("GATEWAY_TRUSTED_PROXIES", "lb.internal")
	_, err = LoadConfig()
	require.Error(t, err)
}

func newTestApp(t *testing.T, backendURL string, trusted ...string) http.Handler {
	t.Helper()
	app, err := New(Config{
		Env:            "test",
		LogFormat:      "text",
		LogLevel:       "error",
		Port:           8080,
		MaxBodyBytes:   1 << 20,
		ProbeTimeout:   time.Second,
		TrustedProxies: trusted,
		Backends: []registry.Backend{
			{Name: "roles", URL: backendURL, Timeout: time.Second, HealthPath: "/health"},
		},
	})
	require.NoError(t, err)
	return app.Handler()
}

func TestGatewayLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer backend.Close()

	send := func(h http.Handler, remote string, i int) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/roles/x", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.%d.%d", i/250, i%250+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.%d.%d", i/250, i%250+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("untrusted peer", func(t *testing.T) {
		h := newTestApp(t, backend.URL)
		for i := range httpx.GatewayLimit.Burst {
			require.Equal(t, http.StatusNoContent, send(h, "192.0.2.10:4000", i), "request %d", i+1)
		}
		// A slow run may refill a token or two; a rotating header must not
		// buy more than that.
		limited := 0
		for i := range 10 {
			if send(h, "192.0.2.10:4000", httpx.GatewayLimit.Burst+i) == http.StatusTooManyRequests {
				limited++
			}
		}
		require.GreaterOrEqual(t, limited, 5)
	})

	t.Run("trusted proxy forwards distinct clients", func(t *testing.T) {
		h := newTestApp(t, backend.URL, "10.0.0.0/8")
		for i := range httpx.GatewayLimit.Burst + 1 {
			require.Equal(t, http.StatusNoContent, send(h, "10.1.2.3:4000", i), "request %d", i+1)
		}
	})
}

func TestDispatchPathIsNotCleaned(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.EscapedPath() + `"}`))
	}))
	defer backend.Close()

	h := newTestApp(t, backend.URL)
	for _, tc := range []struct{ in, want string }{
		{"/api/v1/roles/a//b", "/a//b"},
		{"/api/v1/roles/a/./b/../c", "/a/./b/../c"},
		{"/api/v1/roles/", "/"},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.in, nil))
		require.Equal(t, http.StatusOK, rec.Code, tc.in)
		require.JSONEq(t, `{"path":"`+tc.want+`"}`, rec.Body.String(), tc.in)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rec.Body.String(),
		`gateway_http_requests_total{code="200",method="GET",route="/api/v1/{backend}/{rest...}"} 3`)
}

func TestApplicationRoutes(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `","auth":"` + r.Header.Get("Authorization") + `"}`))
	}))
	defer backend.Close()

	app, err := New(Config{
		Env:          "test",
		LogFormat:    "text",
		LogLevel:     "error",
		Port:         8080,
		MaxBodyBytes: 1 << 20,
		ProbeTimeout: time.Second,
		Backends: []registry.Backend{
			{Name: "roles", URL: backend.URL, Timeout: time.Second, HealthPath: "/health"},
		},
	})
	require.NoError(t, err)
	h := app.Handler()

	get := func(path string, header map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for k, v := range header {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/api/v1/roles/api/v1/roles", map[string]string{"Authorization": "Bearer abc"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"path":"/api/v1/roles","auth":"Bearer abc"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.NotEmpty(t, rec.Header().Get("X-Process-Time"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = get("/api/v1/unknownsvc/x", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"error":"NotFound"`)

	rec = get("/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy","service":"api-gateway","version":"`+BuildVersion+`"}`, rec.Body.String())

	rec = get("/services/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		GatewayStatus string `json:"gateway_status"`
		Overall       string `json:"overall"`
		Services      map[string]struct {
			Status string `json:"status"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, "healthy", status.GatewayStatus)
	require.Equal(t, "healthy", status.Overall)
	require.Equal(t, "healthy", status.Services["roles"].Status)

	rec = get("/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"services":["roles"]`)

	rec = get("/nowhere", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = get("/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	require.True(t, strings.Contains(text, `gateway_backend_requests_total{backend="roles",outcome="ok"} 1`), text)
	require.Contains(t, text, `gateway_backend_up{backend="roles"} 1`)
	require.Contains(t, text, `gateway_http_requests_total{code="404",method="GET",route="/api/v1/{backend}/{rest...}"} 1`)
}
