package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
)

// Retrieval backend Prometheus metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of retrieval backend calls",
		},
		[]string{"backend", "status"}, // status: success / backend_unavailable / backend_timeout
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Retrieval backend call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)
)

var backendMetricsOnce sync.Once

// RegisterBackendMetrics registers the retrieval backend metrics. Safe to call more than once.
func RegisterBackendMetrics() {
	backendMetricsOnce.Do(func() {
		prometheus.MustRegister(BackendRequestsTotal)
		prometheus.MustRegister(BackendRequestDuration)
	})
}

// BackendObserver records one observation per backend call.
type BackendObserver struct{}

// ObserveBackend records the outcome and latency of a backend call.
func (BackendObserver) ObserveBackend(b backend.Backend, status string, d time.Duration) {
	BackendRequestsTotal.WithLabelValues(b.String(), status).Inc()
	BackendRequestDuration.WithLabelValues(b.String()).Observe(d.Seconds())
}
