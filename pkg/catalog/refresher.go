package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providers"
)

// Source supplies the adapters to refresh. It is consulted on every run, so
// a router that swaps its registry is picked up automatically.
type Source interface {
	Adapters() []providers.Adapter
}

// Observer receives the outcome of each provider refresh.
type Observer interface {
	ObserveRefresh(provider string, models int, err error, d time.Duration)
}

// RefreshError reports a provider whose catalog could not be refreshed.
type RefreshError struct {
	Provider string
	Cause    error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh models of %q: %v", e.Provider, e.Cause)
}

func (e *RefreshError) Unwrap() error { return e.Cause }

// Option customizes a Refresher.
type Option func(*Refresher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver reports every provider refresh to o.
func WithObserver(o Observer) Option {
	return func(r *Refresher) { r.observer = o }
}

// Refresher refreshes model catalogs on a schedule.
type Refresher struct {
	source   Source
	config   config.CatalogConfig
	observer Observer
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	lastMu  sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewRefresher creates a refresher for the adapters of source. Zero values
// in cfg fall back to the package defaults.
func NewRefresher(source Source, cfg config.CatalogConfig, opts ...Option) *Refresher {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultCatalogSchedule
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.Duration(config.DefaultCatalogTimeout)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = config.DefaultCatalogConcurrency
	}

	r := &Refresher{
		source: source,
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "catalog")
	return r
}

// RefreshAll refreshes every adapter that supports discovery, at most
// Concurrency at a time, and returns the joined failures. One provider
// failing does not stop the others.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout.Std())
	defer cancel()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(r.config.Concurrency)

	refreshed := 0
	for _, adapter := range r.source.Adapters() {
		refresher, ok := adapter.(providers.ModelRefresher)
		if !ok {
			continue
		}
		refreshed++

		g.Go(func() error {
			if err := r.refresh(ctx, adapter, refresher); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	r.lastMu.Lock()
	r.lastRun, r.lastErr = time.Now(), err
	r.lastMu.Unlock()

	r.logger.Debug("catalog refresh finished", "providers", refreshed, "failed", len(errs))
	return err
}

func (r *Refresher) refresh(ctx context.Context, adapter providers.Adapter, refresher providers.ModelRefresher) error {
	start := time.Now()
	err := refresher.RefreshModels(ctx)
	elapsed := time.Since(start)

	models := len(adapter.GetModels())
	if r.observer != nil {
		r.observer.ObserveRefresh(adapter.Name(), models, err, elapsed)
	}
	if err != nil {
		r.logger.Warn("model catalog refresh failed, keeping previous catalog",
			"provider", adapter.Name(),
			"error", err,
		)
		return &RefreshError{Provider: adapter.Name(), Cause: err}
	}

	r.logger.Debug("model catalog refreshed",
		"provider", adapter.Name(),
		"models", models,
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

// Start schedules RefreshAll according to the configured cron expression.
// It does nothing when the refresher is disabled. The schedule stops when
// ctx is cancelled or Stop is called.
func (r *Refresher) Start(ctx context.Context) error {
	if !r.config.Enabled {
		r.logger.Info("catalog refresh disabled")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("catalog refresher already running")
	}

	schedule, err := cron.ParseStandard(r.config.Schedule)
	if err != nil {
		return fmt.Errorf("invalid catalog schedule %q: %w", r.config.Schedule, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	c.Schedule(schedule, cron.FuncJob(func() { r.run(runCtx) }))
	c.Start()

	r.cron, r.cancel, r.running = c, cancel, true

	if r.config.RefreshOnStart {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.run(runCtx)
		}()
	}

	go func() {
		<-runCtx.Done()
		r.Stop()
	}()

	r.logger.Info("catalog refresher started",
		"schedule", r.config.Schedule,
		"next_run", schedule.Next(time.Now()),
		"concurrency", r.config.Concurrency,
	)
	return nil
}

func (r *Refresher) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := r.RefreshAll(ctx); err != nil {
		r.logger.Warn("scheduled catalog refresh incomplete", "error", err)
	}
}

// Stop cancels in-flight refreshes and waits for them to return. It is safe
// to call more than once.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	done := r.cron.Stop()
	r.mu.Unlock()

	<-done.Done()
	r.wg.Wait()
	r.logger.Info("catalog refresher stopped")
}

// Running reports whether the schedule is active.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun returns the next scheduled refresh, or the zero time when the
// refresher is not running.
func (r *Refresher) NextRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return time.Time{}
	}
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// LastRun returns when RefreshAll last finished and its error.
func (r *Refresher) LastRun() (time.Time, error) {
	r.lastMu.Lock()
	defer r.lastMu.Unlock()
	return r.lastRun, r.lastErr
}
