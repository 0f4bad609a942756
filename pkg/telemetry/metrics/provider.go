package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/switchboard/pkg/providers"
)

// ProviderMetrics tracks the provider inventory and catalog refreshes.
//
// Metrics:
//   - switchboard_provider_configured: 1 when the provider holds a credential
//   - switchboard_provider_models: size of the provider's model catalog
//   - switchboard_catalog_refreshes_total: refreshes by provider and result
//   - switchboard_catalog_refresh_duration_seconds: refresh latency
type ProviderMetrics struct {
	configured *prometheus.GaugeVec
	models     *prometheus.GaugeVec
	refreshes  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewProviderMetrics creates and registers provider metrics.
func NewProviderMetrics(namespace string, registry prometheus.Registerer) *ProviderMetrics {
	pm := &ProviderMetrics{
		configured: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_configured",
				Help:      "Whether the provider holds a usable credential (1) or only simulates (0)",
			},
			[]string{"provider", "type"},
		),
		models: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_models",
				Help:      "Number of models in the provider catalog",
			},
			[]string{"provider"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_refreshes_total",
				Help:      "Total number of model catalog refreshes by result",
			},
			[]string{"provider", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_refresh_duration_seconds",
				Help:      "Model catalog refresh latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(pm.configured, pm.models, pm.refreshes, pm.duration)
	return pm
}

// SetInventory replaces the inventory gauges with adapters.
func (pm *ProviderMetrics) SetInventory(adapters []providers.Adapter) {
	pm.configured.Reset()
	pm.models.Reset()
	for _, a := range adapters {
		v := 0.0
		if a.ValidateConfig() {
			v = 1
		}
		pm.configured.WithLabelValues(a.Name(), a.Type()).Set(v)
		pm.models.WithLabelValues(a.Name()).Set(float64(len(a.GetModels())))
	}
}

// RecordRefresh records one catalog refresh.
func (pm *ProviderMetrics) RecordRefresh(provider string, models int, err error, d time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	} else {
		pm.models.WithLabelValues(provider).Set(float64(models))
	}
	pm.refreshes.WithLabelValues(provider, result).Inc()
	pm.duration.WithLabelValues(provider).Observe(d.Seconds())
}
