package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/switchboard/pkg/providers"
)

// DispatchMetrics tracks dispatch outcomes.
//
// Metrics:
//   - switchboard_dispatches_total: dispatches by task, provider and reason
//   - switchboard_dispatch_duration_seconds: dispatch latency by provider and model
//   - switchboard_dispatch_fallbacks_total: routes whose provider was missing
type DispatchMetrics struct {
	total     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
}

// NewDispatchMetrics creates and registers dispatch metrics.
func NewDispatchMetrics(namespace string, registry prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatches_total",
				Help:      "Total number of dispatches by task, provider and outcome reason",
			},
			[]string{"task", "provider", "reason"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Dispatch latency in seconds, including the provider call",
				// LLM calls range from sub-second to a full provider timeout
				Buckets: []float64{0.01, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_fallbacks_total",
				Help:      "Dispatches whose routed provider was not registered",
			},
			[]string{"task"},
		),
	}

	registry.MustRegister(m.total, m.duration, m.fallbacks)
	return m
}

// Record records one dispatch.
func (m *DispatchMetrics) Record(task string, res providers.Result, fallback bool, d time.Duration) {
	m.total.WithLabelValues(task, res.ProviderName, res.Reason()).Inc()
	m.duration.WithLabelValues(res.ProviderName, res.ModelUsed).Observe(d.Seconds())
	if fallback {
		m.fallbacks.WithLabelValues(task).Inc()
	}
}
