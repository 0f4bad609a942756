package routing

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/journal"
	"mercator-hq/switchboard/pkg/providerfactory"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/telemetry/logging"
	"mercator-hq/switchboard/pkg/telemetry/tracing"
)

// Observer is notified of every completed dispatch.
type Observer interface {
	ObserveDispatch(task string, res providers.Result, fallback bool, d time.Duration)
}

// Router dispatches (task, prompt) pairs to provider adapters.
//
// The registry and route table are swapped together by Reconfigure; a
// dispatch in flight keeps using the pair it started with.
type Router struct {
	mu       sync.RWMutex
	registry *providerfactory.Registry
	table    *Table

	stats       *AtomicStats
	observer    Observer
	journal     journal.Journal
	tracer      trace.Tracer
	baseLogger  *slog.Logger
	logger      *slog.Logger
	adapterOpts []providers.Option
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger. Adapters log through it too unless
// WithAdapterOptions overrides their logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver reports every dispatch to o.
func WithObserver(o Observer) Option {
	return func(r *Router) { r.observer = o }
}

// WithJournal records every dispatch in j.
func WithJournal(j journal.Journal) Option {
	return func(r *Router) { r.journal = j }
}

// WithTracerProvider sets the provider of dispatch spans. The default is the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Router) {
		if tp != nil {
			r.tracer = tp.Tracer(tracing.InstrumentationName)
		}
	}
}

// WithAdapterOptions passes opts to every adapter the router creates.
func WithAdapterOptions(opts ...providers.Option) Option {
	return func(r *Router) { r.adapterOpts = append(r.adapterOpts, opts...) }
}

// New builds a router for cfg: one adapter per configured provider, in
// configuration order, and a route table from cfg.Router. A nil cfg uses
// the built-in defaults.
//
// Providers or routes that cannot be built are skipped and reported in the
// returned error; the router is usable regardless.
func New(cfg *config.Config, opts ...Option) (*Router, error) {
	r := &Router{
		stats:  NewAtomicStats(),
		tracer: otel.GetTracerProvider().Tracer(tracing.InstrumentationName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.baseLogger = r.logger
	r.logger = r.logger.With("component", "router")

	registry, table, err := r.build(cfg)
	r.registry, r.table = registry, table
	return r, err
}

func (r *Router) build(cfg *config.Config) (*providerfactory.Registry, *Table, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}

	adapterOpts := append([]providers.Option{providers.WithLogger(r.baseLogger)}, r.adapterOpts...)
	registry := providerfactory.NewRegistry(r.baseLogger, adapterOpts...)
	regErr := registry.LoadFromConfig(cfg.ProviderConfigs())

	table, tableErr := ParseTable(cfg.Router, registry)
	return registry, table, errors.Join(regErr, tableErr)
}

// DispatchOption adjusts a single dispatch.
type DispatchOption func(*dispatchParams)

type dispatchParams struct {
	history []providers.Message
	options providers.Options
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) DispatchOption {
	return func(p *dispatchParams) { p.options.Temperature = t }
}

// WithMaxTokens overrides the completion length limit.
func WithMaxTokens(n int) DispatchOption {
	return func(p *dispatchParams) { p.options.MaxTokens = n }
}

// WithHistory prepends earlier turns to the prompt.
func WithHistory(history []providers.Message) DispatchOption {
	return func(p *dispatchParams) { p.history = slices.Clone(history) }
}

// Dispatch resolves task to a route, sends prompt to the routed provider and
// returns its normalized result. It never fails: an unknown task uses the
// default route, a route to an unregistered provider uses the first
// registered provider, and every provider failure comes back as a simulated
// result. With no providers at all the result is simulated with an empty
// ProviderName.
func (r *Router) Dispatch(ctx context.Context, task, prompt string, opts ...DispatchOption) providers.Result {
	start := time.Now()
	id := uuid.NewString()

	ctx = logging.WithTask(logging.WithDispatchID(ctx, id), task)
	ctx, span := r.tracer.Start(ctx, "dispatch", trace.WithAttributes(tracing.DispatchAttributes(id, task)...))
	defer span.End()

	params := dispatchParams{options: providers.DefaultOptions()}
	for _, opt := range opts {
		opt(&params)
	}

	r.mu.RLock()
	registry, table := r.registry, r.table
	r.mu.RUnlock()

	route := table.Resolve(task)
	adapter, fallback := r.lookup(ctx, registry, route)

	var res providers.Result
	if adapter == nil {
		r.logger.WarnContext(ctx, "no providers registered, returning simulated result")
		res = providers.Simulate("", route.Model, providers.ErrNoProvider)
	} else {
		model := route.Model
		if fallback || model == "" {
			model = firstModel(adapter)
		}
		history := append(params.history, providers.Message{Role: providers.RoleUser, Content: prompt})

		res = adapter.Send(ctx, model, history, params.options)
		if res.Text == "" {
			res.Text = providers.EmptyReplyText(res.ProviderName, res.ModelUsed)
		}
	}

	elapsed := time.Since(start)
	r.stats.Record(task, res, fallback)
	tracing.SetResultAttributes(span, res, fallback)
	if r.observer != nil {
		r.observer.ObserveDispatch(task, res, fallback, elapsed)
	}
	r.record(ctx, id, task, res, fallback, start, elapsed)

	r.logger.DebugContext(ctx, "dispatch completed",
		"provider", res.ProviderName,
		"model", res.ModelUsed,
		"simulated", res.Simulated,
		"reason", res.Reason(),
		"fallback", fallback,
		"duration_ms", elapsed.Milliseconds(),
	)
	return res
}

// lookup returns the adapter for route, or the first registered adapter when
// the route's provider is missing. The adapter is nil only for an empty
// registry.
func (r *Router) lookup(ctx context.Context, registry *providerfactory.Registry, route Route) (providers.Adapter, bool) {
	if !route.IsZero() {
		adapter, err := registry.Get(route.Provider)
		if err == nil {
			return adapter, false
		}
		r.logger.WarnContext(ctx, "routed provider not registered, using first provider",
			"route", route.String(),
			"error", err,
		)
	}

	adapter, ok := registry.First()
	if !ok {
		return nil, false
	}
	return adapter, true
}

func (r *Router) record(ctx context.Context, id, task string, res providers.Result, fallback bool, start time.Time, elapsed time.Duration) {
	if r.journal == nil {
		return
	}

	entry := journal.Entry{
		ID:        id,
		Task:      task,
		Provider:  res.ProviderName,
		Model:     res.ModelUsed,
		Simulated: res.Simulated,
		Fallback:  fallback,
		Reason:    res.Reason(),
		Latency:   elapsed,
		Time:      start,
	}
	if res.Cause != nil {
		entry.Error = res.Cause.Error()
	}

	// A caller that gave up on the dispatch still gets it journaled.
	if err := r.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.WarnContext(ctx, "failed to journal dispatch", "error", err)
	}
}

// Resolve returns the route Dispatch would use for task.
func (r *Router) Resolve(task string) Route {
	return r.Table().Resolve(task)
}

// UpdateRoute points task at provider and model. The provider need not be
// registered yet; Dispatch falls back until it is.
//
// The update lands in the current table; Reconfigure waits for it, and a
// later Reconfigure replaces it with the reloaded routes.
func (r *Router) UpdateRoute(task, provider, model string) error {
	r.mu.RLock()
	err := r.table.Update(task, Route{Provider: provider, Model: model})
	r.mu.RUnlock()
	if err != nil {
		return err
	}
	r.logger.Info("route updated", "task", task, "route", Route{Provider: provider, Model: model}.String())
	return nil
}

// AddProvider registers (or replaces) a provider at runtime. Like
// UpdateRoute it holds off Reconfigure until the provider is in the current
// registry; a later Reconfigure drops it unless the reloaded file has it.
// Adapter construction runs under the read lock and must not do I/O.
func (r *Router) AddProvider(cfg providers.ProviderConfig) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registry.AddProvider(cfg)
}

// Reconfigure rebuilds the registry and route table from cfg and swaps them
// in atomically. Entries that cannot be built are skipped and reported.
func (r *Router) Reconfigure(cfg *config.Config) error {
	registry, table, err := r.build(cfg)

	r.mu.Lock()
	r.registry, r.table = registry, table
	r.mu.Unlock()

	r.logger.Info("router reconfigured",
		"providers", registry.Len(),
		"routes", len(table.Routes()),
	)
	return err
}

// Registry returns the current provider registry.
func (r *Router) Registry() *providerfactory.Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registry
}

// Table returns the current route table.
func (r *Router) Table() *Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table
}

// Adapters returns the registered adapters in registration order.
func (r *Router) Adapters() []providers.Adapter {
	return r.Registry().Adapters()
}

// Stats returns a snapshot of dispatch statistics.
func (r *Router) Stats() Stats {
	return r.stats.Snapshot()
}

// Journal returns the dispatch journal, or nil when none is configured.
func (r *Router) Journal() journal.Journal {
	return r.journal
}
