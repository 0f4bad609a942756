package providerfactory

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"mercator-hq/switchboard/pkg/providers"
)

// Registry holds one adapter per configured provider, keyed by name and
// iterated in insertion order.
//
// Registry is safe for concurrent use. Lookups take a read lock; Register
// and Remove take the write lock.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]providers.Adapter
	order    []string

	opts   []providers.Option
	logger *slog.Logger
}

// NewRegistry creates an empty registry. opts are passed to every adapter
// it creates.
func NewRegistry(logger *slog.Logger, opts ...providers.Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		adapters: make(map[string]providers.Adapter),
		opts:     opts,
		logger:   logger.With("component", "registry"),
	}
}

// LoadFromConfig registers every config in order. It keeps going after a
// failure and returns the joined errors of the configs that were skipped.
func (r *Registry) LoadFromConfig(configs []providers.ProviderConfig) error {
	var errs []error
	for _, cfg := range configs {
		if err := r.Register(cfg); err != nil {
			r.logger.Error("skipping provider", "name", cfg.Name, "error", err)
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}

// Register creates the adapter for config and adds it. A provider with the
// same name is replaced in place, keeping its position.
func (r *Registry) Register(config providers.ProviderConfig) error {
	adapter, err := NewAdapter(config, r.opts...)
	if err != nil {
		return err
	}
	r.logger.Debug("provider adapter created",
		"name", adapter.Name(),
		"type", adapter.Type(),
		"configured", adapter.ValidateConfig(),
	)
	return r.Add(adapter)
}

// AddProvider is Register for administrative callers; it logs the change.
func (r *Registry) AddProvider(config providers.ProviderConfig) error {
	if err := r.Register(config); err != nil {
		return fmt.Errorf("failed to add provider %q: %w", config.Name, err)
	}
	r.logger.Info("provider added",
		"name", config.Name,
		"total_providers", r.Len(),
	)
	return nil
}

// Add registers an already constructed adapter.
func (r *Registry) Add(adapter providers.Adapter) error {
	name := adapter.Name()
	if name == "" {
		return &providers.ConfigError{Field: "name", Message: "provider name is required"}
	}
	if len(adapter.GetModels()) == 0 {
		return &providers.ConfigError{Provider: name, Field: "models", Message: "at least one model is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.adapters[name]; ok {
		r.logger.Warn("replacing existing provider", "name", name)
	} else {
		r.order = append(r.order, name)
	}
	r.adapters[name] = adapter
	return nil
}

// Remove drops a provider.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.adapters[name]; !ok {
		return &ProviderNotFoundError{ProviderName: name, AvailableProviders: slices.Clone(r.order)}
	}
	delete(r.adapters, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
	return nil
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (providers.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[name]
	if !ok {
		return nil, &ProviderNotFoundError{ProviderName: name, AvailableProviders: slices.Clone(r.order)}
	}
	return adapter, nil
}

// First returns the earliest registered adapter.
func (r *Registry) First() (providers.Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return nil, false
	}
	return r.adapters[r.order[0]], true
}

// Adapters returns the adapters in insertion order.
func (r *Registry) Adapters() []providers.Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]providers.Adapter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.adapters[name])
	}
	return out
}

// All returns the configuration of every provider, keyed by name.
func (r *Registry) All() map[string]providers.ProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]providers.ProviderConfig, len(r.adapters))
	for name, adapter := range r.adapters {
		out[name] = adapter.Config()
	}
	return out
}

// Names returns the provider names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Models returns each provider's current catalog.
func (r *Registry) Models() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.adapters))
	for name, adapter := range r.adapters {
		out[name] = adapter.GetModels()
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func joinErrors(errs []error) error {
	if len(errs) <= 1 {
		return errors.Join(errs...)
	}
	return fmt.Errorf("%d providers failed to load: %w", len(errs), errors.Join(errs...))
}
