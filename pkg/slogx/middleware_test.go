package slogx_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/aussiebroadwan/courtside/pkg/idx"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddlewareStampsHeaders(t *testing.T) {
	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "test", Format: "json", Output: &buf})

	var seenID string
	h := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = slogx.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)

	reqID := rec.Header().Get(slogx.HeaderRequestID)
	require.NotEmpty(t, reqID)
	require.Equal(t, reqID, seenID)
	_, err := idx.Parse(reqID)
	require.NoError(t, err)

	elapsed, err := strconv.ParseFloat(rec.Header().Get(slogx.HeaderProcessTime), 64)
	require.NoError(t, err)
	require.GreaterOrEqual(t, elapsed, 0.0)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "http_request", line["msg"])
	require.Equal(t, reqID, line["req_id"])
	require.EqualValues(t, http.StatusTeapot, line["status"])
}

func TestHTTPMiddlewareReusesInboundRequestID(t *testing.T) {
	h := slogx.HTTPMiddleware(slogx.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(slogx.HeaderRequestID, "upstream-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "upstream-id", rec.Header().Get(slogx.HeaderRequestID))
	require.NotEmpty(t, rec.Header().Get(slogx.HeaderProcessTime))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, "DEBUG", slogx.ParseLevel("debug").String())
	require.Equal(t, "WARN", slogx.ParseLevel("warning").String())
	require.Equal(t, "ERROR", slogx.ParseLevel("ERROR").String())
	require.Equal(t, "INFO", slogx.ParseLevel("bogus").String())
}
