package config

import (
	"maps"
	"slices"
	"time"

	"mercator-hq/switchboard/pkg/providers"
)

// Config is the root configuration document. Providers and Router are the
// core of the document; the remaining sections are optional.
type Config struct {
	// Providers maps provider names to their settings, in document order.
	Providers ProviderSet `json:"Providers" yaml:"Providers"`

	// Router maps task labels to "provider,model" route strings.
	Router map[string]string `json:"Router" yaml:"Router"`

	// Logging configures the process logger.
	Logging LoggingConfig `json:"Logging,omitzero" yaml:"Logging,omitempty"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"Metrics,omitzero" yaml:"Metrics,omitempty"`

	// Tracing configures OpenTelemetry tracing of dispatches.
	Tracing TracingConfig `json:"Tracing,omitzero" yaml:"Tracing,omitempty"`

	// Journal configures the dispatch journal.
	Journal JournalConfig `json:"Journal,omitzero" yaml:"Journal,omitempty"`

	// Catalog configures periodic model catalog refresh.
	Catalog CatalogConfig `json:"Catalog,omitzero" yaml:"Catalog,omitempty"`

	// Server configures the HTTP API started by "serve".
	Server ServerConfig `json:"Server,omitzero" yaml:"Server,omitempty"`
}

// ProviderEntry is the configuration of one provider.
type ProviderEntry struct {
	// Name is the provider identity. It is always set to the map key.
	Name string `json:"name" yaml:"name"`

	// Type selects the adapter family. Empty means "infer from the name".
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// BaseURL includes the API version segment.
	BaseURL string `json:"api_base_url" yaml:"api_base_url"`

	// APIKey is an opaque credential; "sk-xxx" marks it as unset.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Models is the static catalog; the first model is the default.
	Models []string `json:"models" yaml:"models"`

	// Timeout overrides the family's request timeout.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ProviderConfig converts the entry into the adapter configuration.
func (e ProviderEntry) ProviderConfig() providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:    e.Name,
		Type:    e.Type,
		BaseURL: e.BaseURL,
		APIKey:  e.APIKey,
		Models:  slices.Clone(e.Models),
		Timeout: e.Timeout.Std(),
	}
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is json or text. Default: json
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// AddSource adds file:line to every record.
	AddSource bool `json:"add_source,omitempty" yaml:"add_source,omitempty"`

	// ShowSecrets disables redaction of credential-looking values.
	ShowSecrets bool `json:"show_secrets,omitempty" yaml:"show_secrets,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Namespace prefixes every metric name. Default: switchboard
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Path is where the HTTP API serves metrics. Default: /metrics
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Endpoint is the OTLP gRPC collector address. Default: localhost:4317
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Insecure disables TLS towards the collector.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`

	// SampleRatio is the fraction of dispatches traced. Default: 1.0
	SampleRatio float64 `json:"sample_ratio,omitempty" yaml:"sample_ratio,omitempty"`

	// ServiceName is reported as service.name. Default: switchboard
	ServiceName string `json:"service_name,omitempty" yaml:"service_name,omitempty"`
}

// JournalConfig configures the dispatch journal.
type JournalConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Backend is memory or sqlite. Default: memory
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Path is the SQLite database file. Default: ~/.ccli/journal.db
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// MaxEntries bounds the journal; older entries are dropped. Default: 1000
	MaxEntries int `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
}

// CatalogConfig configures periodic model catalog refresh.
type CatalogConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Schedule is a standard cron expression. Default: 0 */6 * * *
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`

	// RefreshOnStart runs one refresh when the refresher starts.
	RefreshOnStart bool `json:"refresh_on_start,omitempty" yaml:"refresh_on_start,omitempty"`

	// Timeout bounds a whole refresh run. Default: 30s
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Concurrency bounds parallel provider refreshes. Default: 4
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// ListenAddress is host:port. Default: 127.0.0.1:8080
	ListenAddress string `json:"listen_address,omitempty" yaml:"listen_address,omitempty"`

	// ReadTimeout bounds reading a request. Default: 30s
	ReadTimeout Duration `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`

	// WriteTimeout bounds writing a response; it must exceed the slowest
	// provider timeout. Default: 90s
	WriteTimeout Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown. Default: 15s
	ShutdownTimeout Duration `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`

	// WatchConfig reloads the configuration file when it changes.
	WatchConfig bool `json:"watch_config,omitempty" yaml:"watch_config,omitempty"`
}

// ProviderConfigs returns the adapter configurations in document order.
func (c *Config) ProviderConfigs() []providers.ProviderConfig {
	entries := c.Providers.Entries()
	out := make([]providers.ProviderConfig, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ProviderConfig())
	}
	return out
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Providers = c.Providers.Clone()
	out.Router = maps.Clone(c.Router)
	if out.Router == nil {
		out.Router = map[string]string{}
	}
	return &out
}

// Duration is a time.Duration that reads and writes as a Go duration string
// ("45s") in both JSON and YAML. JSON numbers are read as seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String returns the duration in Go syntax.
func (d Duration) String() string { return time.Duration(d).String() }
