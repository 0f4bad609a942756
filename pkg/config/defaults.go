package config

import (
	"time"

	"mercator-hq/switchboard/pkg/providerfactory"
	"mercator-hq/switchboard/pkg/providers"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "~/.ccli/config.json"

// Default values for optional sections.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "switchboard"
	DefaultMetricsPath      = "/metrics"

	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampleRatio = 1.0
	DefaultServiceName        = "switchboard"

	DefaultJournalBackend    = "memory"
	DefaultJournalPath       = "~/.ccli/journal.db"
	DefaultJournalMaxEntries = 1000

	DefaultCatalogSchedule    = "0 */6 * * *"
	DefaultCatalogTimeout     = 30 * time.Second
	DefaultCatalogConcurrency = 4

	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 90 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
)

// builtin is built once and never handed out directly.
var builtin = buildDefaults()

// Defaults returns a fresh copy of the built-in configuration: six providers
// without credentials and the standard task routes.
func Defaults() *Config {
	return builtin.Clone()
}

func buildDefaults() *Config {
	cfg := &Config{
		Router: map[string]string{
			"default":     "openai,gpt-3.5-turbo",
			"background":  "ollama,llama3",
			"think":       "anthropic,claude-3-sonnet-20240229",
			"longContext": "gemini,gemini-1.5-pro",
			"coding":      "deepseek,deepseek-coder",
			"claudeCode":  "anthropic,claude-3-opus-20240229",
		},
	}

	for _, p := range []struct {
		name    string
		baseURL string
		apiKey  string
		models  []string
	}{
		{"openai", "https://api.openai.com/v1", providers.PlaceholderAPIKey, []string{"gpt-3.5-turbo", "gpt-4"}},
		{"anthropic", "https://api.anthropic.com/v1", providers.PlaceholderAPIKey, []string{"claude-3-haiku-20240307", "claude-3-sonnet-20240229"}},
		{"openrouter", "https://openrouter.ai/api/v1", providers.PlaceholderAPIKey, []string{"openai/gpt-3.5-turbo", "anthropic/claude-3-sonnet"}},
		{"deepseek", "https://api.deepseek.com/v1", providers.PlaceholderAPIKey, []string{"deepseek-chat", "deepseek-coder"}},
		{"ollama", "http://localhost:11434/api", "", []string{"llama3", "codellama"}},
		{"gemini", "https://generativelanguage.googleapis.com/v1beta", providers.PlaceholderAPIKey, []string{"gemini-pro", "gemini-1.5-pro"}},
	} {
		cfg.Providers.Set(p.name, ProviderEntry{
			Name:    p.name,
			BaseURL: p.baseURL,
			APIKey:  p.apiKey,
			Models:  p.models,
		})
	}

	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields in place. Provider entries get their name
// from the map key and their type, base URL and models from the family
// defaults.
func ApplyDefaults(cfg *Config) {
	for _, key := range cfg.Providers.Keys() {
		entry, _ := cfg.Providers.Get(key)
		entry.Name = key
		if entry.Type == "" {
			entry.Type = providerfactory.InferType(key)
		}
		if entry.BaseURL == "" {
			entry.BaseURL = providerfactory.DefaultBaseURL(entry.Type)
		}
		if len(entry.Models) == 0 {
			entry.Models = providerfactory.DefaultModels(entry.Type)
		}
		cfg.Providers.Set(key, entry)
	}
	if cfg.Router == nil {
		cfg.Router = map[string]string{}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultServiceName
	}

	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}
	if cfg.Journal.MaxEntries == 0 {
		cfg.Journal.MaxEntries = DefaultJournalMaxEntries
	}

	if cfg.Catalog.Schedule == "" {
		cfg.Catalog.Schedule = DefaultCatalogSchedule
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = Duration(DefaultCatalogTimeout)
	}
	if cfg.Catalog.Concurrency == 0 {
		cfg.Catalog.Concurrency = DefaultCatalogConcurrency
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
}
