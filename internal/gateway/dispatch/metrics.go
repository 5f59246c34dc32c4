package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type dispatchMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newDispatchMetrics(reg prometheus.Registerer) *dispatchMetrics {
	m := &dispatchMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "backend_requests_total",
			Help:      "Dispatched requests by backend and outcome.",
		}, []string{"backend", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "backend_request_duration_seconds",
			Help:      "Time spent dispatching to each backend.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"backend"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

// observe records one dispatch. Unknown backend names collapse into a single
// label value so clients cannot grow the series set.
func (m *dispatchMetrics) observe(backend, outcome string, elapsed time.Duration) {
	if backend == "" {
		backend = "unknown"
	}
	m.requests.WithLabelValues(backend, outcome).Inc()
	m.duration.WithLabelValues(backend).Observe(elapsed.Seconds())
}
