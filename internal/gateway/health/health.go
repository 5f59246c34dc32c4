// Package health fans a liveness probe out to every backend and merges the
// answers into one report.
package health

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aussiebroadwan/courtside/internal/gateway/registry"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const DefaultProbeTimeout = 5 * time.Second

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusError     = "error"
	StatusDegraded  = "degraded"
)

// BackendStatus is one probe result.
type BackendStatus struct {
	Status       string  `json:"status"`
	ResponseTime float64 `json:"response_time,omitempty"`
	StatusCode   int     `json:"status_code,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Report is the body of GET /services/status.
type Report struct {
	GatewayStatus string                   `json:"gateway_status"`
	Overall       string                   `json:"overall"`
	Services      map[string]BackendStatus `json:"services"`
	Timestamp     time.Time                `json:"timestamp"`
}

// Aggregator probes a fixed set of targets.
type Aggregator struct {
	targets      []*registry.BackendTarget
	probeTimeout time.Duration
	up           *prometheus.GaugeVec
}

// New builds an aggregator. probeTimeout <= 0 means DefaultProbeTimeout.
// The backend_up gauge is registered on reg when it is not nil.
func New(targets []*registry.BackendTarget, probeTimeout time.Duration, reg prometheus.Registerer) *Aggregator {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	up := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gateway",
		Name:      "backend_up",
		Help:      "1 when the backend's last health probe succeeded.",
	}, []string{"backend"})
	if reg != nil {
		reg.MustRegister(up)
	}
	return &Aggregator{targets: targets, probeTimeout: probeTimeout, up: up}
}

// CheckAll probes every backend concurrently and waits for all of them. A
// failing probe only affects its own entry.
func (a *Aggregator) CheckAll(ctx context.Context) Report {
	results := make([]BackendStatus, len(a.targets))

	var g errgroup.Group
	for i, t := range a.targets {
		g.Go(func() error {
			results[i] = a.probe(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		GatewayStatus: StatusHealthy,
		Overall:       StatusHealthy,
		Services:      make(map[string]BackendStatus, len(a.targets)),
		Timestamp:     time.Now().UTC(),
	}
	for i, t := range a.targets {
		res := results[i]
		report.Services[t.Name] = res

		if res.Status == StatusHealthy {
			a.up.WithLabelValues(t.Name).Set(1)
		} else {
			a.up.WithLabelValues(t.Name).Set(0)
			report.Overall = StatusDegraded
		}
	}
	return report
}

func (a *Aggregator) probe(ctx context.Context, t *registry.BackendTarget) BackendStatus {
	ctx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.HealthURL(), nil)
	if err != nil {
		return BackendStatus{Status: StatusError, Error: "invalid health url"}
	}
	if id := slogx.RequestID(ctx); id != "" {
		req.Header.Set(slogx.HeaderRequestID, id)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		slogx.FromContext(ctx).Warn("health probe failed", "backend", t.Name, "error", err)
		return BackendStatus{Status: StatusError, Error: describe(err)}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	status := StatusHealthy
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		status = StatusUnhealthy
	}
	return BackendStatus{
		Status:       status,
		ResponseTime: time.Since(start).Seconds(),
		StatusCode:   resp.StatusCode,
	}
}

// describe keeps addresses and internals out of the report.
func describe(err error) string {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return "health check timed out"
	case errors.Is(err, context.Canceled):
		return "health check canceled"
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return "connection failed"
	}
	return "health check failed"
}
