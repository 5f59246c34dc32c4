// Package dispatch forwards /api/v1/<backend>/<rest> requests to the
// registered backend and relays the answer untouched.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/courtside/internal/gateway/registry"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
)

// Prefix is the versioned path every dispatched request lives under.
const Prefix = "/api/v1/"

const DefaultMaxBodyBytes int64 = 10 << 20

// Backends resolves backend names. *registry.Registry satisfies it.
type Backends interface {
	Lookup(name string) (*registry.BackendTarget, error)
}

// Dispatcher is an http.Handler. It holds no mutable state besides its
// metrics, so requests to different backends never contend.
type Dispatcher struct {
	backends     Backends
	maxBodyBytes int64
	metrics      *dispatchMetrics
}

// New builds a dispatcher. maxBodyBytes <= 0 means DefaultMaxBodyBytes.
// Metrics are registered on reg when it is not nil.
func New(backends Backends, maxBodyBytes int64, reg prometheus.Registerer) *Dispatcher {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Dispatcher{
		backends:     backends,
		maxBodyBytes: maxBodyBytes,
		metrics:      newDispatchMetrics(reg),
	}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := slogx.FromContext(r.Context())

	name, rest := splitPath(r.URL.EscapedPath())
	target, err := d.backends.Lookup(name)
	if err != nil {
		d.finish(r, start, "", http.StatusNotFound, outcomeUnknownBackend, nil)
		httpx.WriteError(w, http.StatusNotFound, httpx.KindNotFound, fmt.Sprintf("unknown backend %q", name))
		return
	}

	var body []byte
	if hasBody(r.Method) {
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, d.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				d.finish(r, start, target.Name, http.StatusRequestEntityTooLarge, outcomeTooLarge, nil)
				httpx.WriteError(w, http.StatusRequestEntityTooLarge, httpx.KindPayloadTooLarge,
					fmt.Sprintf("request body exceeds %d bytes", d.maxBodyBytes))
				return
			}
			d.finish(r, start, target.Name, http.StatusBadRequest, outcomeBadRequest, err)
			httpx.WriteError(w, http.StatusBadRequest, httpx.KindValidation, "could not read request body")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), target.Timeout)
	defer cancel()

	status, header, respBody, err := forward(ctx, target, r, rest, body)
	if err != nil {
		if r.Context().Err() != nil {
			// The caller went away; nobody is left to answer.
			d.finish(r, start, target.Name, 0, outcomeCanceled, err)
			return
		}
		code, kind, msg, outcome := classify(err, target.Name)
		d.finish(r, start, target.Name, code, outcome, err)
		httpx.WriteError(w, code, kind, msg)
		return
	}

	relay(w, r, status, header, respBody)
	d.finish(r, start, target.Name, status, outcomeOK, nil)
	log.Debug("relayed", "backend", target.Name, "bytes", len(respBody))
}

// forward performs the outbound call and reads the whole response within
// ctx so a backend that stalls mid-body still hits its deadline.
func forward(ctx context.Context, target *registry.BackendTarget, in *http.Request, rest string, body []byte) (int, http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	out, err := http.NewRequestWithContext(ctx, in.Method, target.URL(rest, in.URL.RawQuery), reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("build request: %w", err)
	}
	copyHeaders(out.Header, in.Header)
	if id := slogx.RequestID(in.Context()); id != "" {
		out.Header.Set(slogx.HeaderRequestID, id)
	}

	resp, err := target.Client.Do(out)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, resp.Header, respBody, nil
}

func relay(w http.ResponseWriter, r *http.Request, status int, header http.Header, body []byte) {
	dst := w.Header()
	// Backend headers replace any the gateway's middleware already set.
	for k := range header {
		dst.Del(k)
	}
	copyHeaders(dst, header)
	// The gateway's own correlation headers win over the backend's.
	dst.Del(slogx.HeaderRequestID)
	dst.Del(slogx.HeaderProcessTime)
	if id := slogx.RequestID(r.Context()); id != "" {
		dst.Set(slogx.HeaderRequestID, id)
	}

	if !bodyAllowed(r.Method, status) {
		w.WriteHeader(status)
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
		dst.Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (d *Dispatcher) finish(r *http.Request, start time.Time, backend string, status int, outcome string, cause error) {
	elapsed := time.Since(start)
	d.metrics.observe(backend, outcome, elapsed)

	// The contextual logger already carries req_id, method and path.
	attrs := []any{
		"backend", backend,
		"elapsed_ms", elapsed.Milliseconds(),
		"status", status,
		"outcome", outcome,
	}
	log := slogx.FromContext(r.Context())
	switch {
	case cause != nil && outcome != outcomeCanceled:
		log.Error("dispatch", append(attrs, "error", cause)...)
	case cause != nil:
		log.Info("dispatch", append(attrs, "error", cause)...)
	default:
		log.Info("dispatch", attrs...)
	}
}

// splitPath returns the backend name and the still-escaped remainder of
// /api/v1/<name>/<rest>.
func splitPath(escaped string) (string, string) {
	trimmed := strings.TrimPrefix(escaped, Prefix)
	name, rest, _ := strings.Cut(trimmed, "/")
	return name, rest
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func bodyAllowed(method string, status int) bool {
	if method == http.MethodHead {
		return false
	}
	switch {
	case status >= 100 && status < 200,
		status == http.StatusNoContent,
		status == http.StatusNotModified:
		return false
	}
	return true
}
