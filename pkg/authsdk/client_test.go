package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_, _ = w.Write([]byte(`{"id": 42, "email": "ana@example.com", "username": "ana", "is_active": true, "is_admin": false}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Could not validate credentials"}`))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second)

	user, err := client.Me(context.Background(), "good")
	require.NoError(t, err)
	require.Equal(t, SubjectID("42"), user.ID)
	require.True(t, user.IsActive)
	require.False(t, user.IsAdmin)

	_, err = client.Me(context.Background(), "bad")
	require.Equal(t, http.StatusUnauthorized, StatusCode(err))
	require.False(t, errors.Is(err, ErrUnreachable))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Could not validate credentials", apiErr.Message)
}

func TestUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, time.Second).Me(context.Background(), "tok")
	require.ErrorIs(t, err, ErrUnreachable)
	require.Zero(t, StatusCode(err))
}

func TestTimeoutIsUnreachable(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).GetLiveness(context.Background())
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestCheckPermissionRoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/permissions/check", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req PermissionCheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "reservations", req.Resource)

		_ = json.NewEncoder(w).Encode(PermissionCheckResponse{
			HasPermission: req.Action == "create",
			UserID:        "u-1",
			Resource:      req.Resource,
			Action:        req.Action,
			RoleName:      "user",
			Reason:        "granted",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	resp, err := client.CheckPermission(context.Background(), "tok", PermissionCheckRequest{Resource: "reservations", Action: "create"})
	require.NoError(t, err)
	require.True(t, resp.HasPermission)
	require.Equal(t, "user", resp.RoleName)
}

func TestEnvelopeErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"AlreadyGranted","message":"permission already granted to role"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).GrantPermission(context.Background(), "tok", "r-1", GrantRequest{PermissionID: "p-1"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	require.Equal(t, "AlreadyGranted", apiErr.Kind)
}

func TestUnexpectedSuccessStatusIsAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).CreateRole(context.Background(), "tok", CreateRoleRequest{Name: "staff"})
	require.Equal(t, http.StatusAccepted, StatusCode(err))
}

func TestSubjectIDUnmarshal(t *testing.T) {
	t.Parallel()

	var v struct {
		ID SubjectID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"}`), &v))
	require.Equal(t, SubjectID("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"), v.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":7}`), &v))
	require.Equal(t, SubjectID("7"), v.ID)

	require.Error(t, json.Unmarshal([]byte(`{"id":1.5}`), &v))
	require.Error(t, json.Unmarshal([]byte(`{"id":true}`), &v))
}
