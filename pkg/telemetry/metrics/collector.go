package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providers"
)

// OtherTask replaces task labels once the task cardinality limit is reached.
const OtherTask = "other"

// DefaultMaxTasks bounds the number of distinct task label values.
const DefaultMaxTasks = 256

// Collector owns the switchboard metrics and the registry they live in.
// It satisfies the router's and the catalog refresher's observer interfaces.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	dispatch *DispatchMetrics
	provider *ProviderMetrics

	tasks *CardinalityLimiter
}

// NewCollector creates the metrics for cfg in registry. A nil registry gets
// a fresh one with the Go runtime and process collectors.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Metrics, nil)
//	router, _ := routing.New(cfg, routing.WithObserver(collector))
//	http.Handle(cfg.Metrics.Path, collector.Handler())
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		dispatch: NewDispatchMetrics(cfg.Namespace, registry),
		provider: NewProviderMetrics(cfg.Namespace, registry),
		tasks:    NewCardinalityLimiter(DefaultMaxTasks),
	}
}

// Registry returns the registry the collector registered into.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveDispatch records a completed dispatch.
func (c *Collector) ObserveDispatch(task string, res providers.Result, fallback bool, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	if !c.tasks.Allow(task) {
		task = OtherTask
	}
	c.dispatch.Record(task, res, fallback, d)
}

// ObserveRefresh records a catalog refresh of one provider.
func (c *Collector) ObserveRefresh(provider string, models int, err error, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.provider.RecordRefresh(provider, models, err, d)
}

// ObserveProviders replaces the provider inventory gauges.
func (c *Collector) ObserveProviders(adapters []providers.Adapter) {
	if !c.config.Enabled {
		return
	}
	c.provider.SetInventory(adapters)
}

// CardinalityLimiter caps the number of distinct values admitted for a label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already admitted or there is still room
// for it.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
