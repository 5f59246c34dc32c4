package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/courtside/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 8001, cfg.Port)
	require.Equal(t, "remote", cfg.Verifier)
	require.True(t, cfg.Seed)
	require.Zero(t, cfg.VerifierCacheTTL)
	require.False(t, cfg.FailOpen)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ROLES_PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ROLES_VERIFIER_CACHE_TTL", "30s")
	t.Setenv("ROLES_JWT_AUDIENCE", "api,admin")
	t.Setenv("ROLES_BOOTSTRAP_ADMIN_USER", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Port)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 30*time.Second, cfg.VerifierCacheTTL)
	require.Equal(t, []string{"api", "admin"}, cfg.JWTAudience)
	require.Equal(t, "1", cfg.BootstrapAdminUser)
}

func TestLoadConfigRejectsUnknownVerifier(t *testing.T) {
	t.Setenv("ROLES_VERIFIER", "ldap")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestApplicationServesSeededAdmin(t *testing.T) {
	identity := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer root" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"is_active":true,"is_admin":false}`))
	}))
	defer identity.Close()

	app, err := New(context.Background(), Config{
		Env:                 "test",
		LogFormat:           "text",
		LogLevel:            "error",
		Port:                0,
		DatabaseFile:        ":memory:",
		Seed:                true,
		BootstrapAdminUser:  "1",
		Verifier:            "remote",
		AuthURL:             identity.URL,
		AuthTimeout:         time.Second,
		ShutdownGracePeriod: time.Second,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Shutdown(context.Background())) }()

	// User 1 is not an admin by identity, only through the seeded role.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/permissions/check",
		strings.NewReader(`{"resource":"fields","action":"manage"}`))
	req.Header.Set("Authorization", "Bearer root")
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res authsdk.PermissionCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.HasPermission)
	require.Equal(t, "admin", res.RoleName)
	require.Equal(t, "role_grants_all", res.Reason)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestShutdownReportsServerError(t *testing.T) {
	app, err := New(context.Background(), Config{
		Env:                 "test",
		LogFormat:           "text",
		LogLevel:            "error",
		DatabaseFile:        ":memory:",
		Verifier:            "remote",
		AuthURL:             "http://127.0.0.1:1",
		AuthTimeout:         time.Second,
		ShutdownGracePeriod: time.Second,
	})
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	app.server.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.server.Serve(ln) }()

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/stuck")
		if err == nil {
			_ = resp.Body.Close()
		}
	}()
	<-entered

	// The in-flight request cannot finish before the deadline.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = app.Shutdown(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
