package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/switchboard/pkg/providerfactory"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "Router.think").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// SplitRoute splits a "provider,model" route string on its first comma.
// The model is empty when the string has no comma. ok is false when the
// provider part is empty.
func SplitRoute(route string) (provider, model string, ok bool) {
	provider, model, _ = strings.Cut(route, ",")
	provider = strings.TrimSpace(provider)
	model = strings.TrimSpace(model)
	return provider, model, provider != ""
}

// Validate checks a configuration after ApplyDefaults. Routes may name
// providers that are not configured; the router falls back at dispatch time.
func Validate(cfg *Config) error {
	var errs []FieldError

	for _, key := range cfg.Providers.Keys() {
		entry, _ := cfg.Providers.Get(key)
		errs = append(errs, validateProvider(key, entry)...)
	}
	errs = append(errs, validateRoutes(cfg.Router)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateTracing(&cfg.Tracing)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateCatalog(&cfg.Catalog)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// Sanitize removes what Validate would reject and keeps the rest. A faulty
// provider entry or route is dropped on its own; a faulty optional section
// is replaced by its defaults. The returned errors describe what was
// dropped or replaced; after Sanitize, Validate(cfg) returns nil.
func Sanitize(cfg *Config) []FieldError {
	var errs []FieldError

	for _, key := range cfg.Providers.Keys() {
		entry, _ := cfg.Providers.Get(key)
		if faults := validateProvider(key, entry); len(faults) > 0 {
			cfg.Providers.Delete(key)
			errs = append(errs, faults...)
		}
	}

	errs = append(errs, validateRoutes(cfg.Router)...)
	for task, route := range cfg.Router {
		if _, _, ok := SplitRoute(route); !ok || strings.TrimSpace(task) == "" {
			delete(cfg.Router, task)
		}
	}

	if faults := validateLogging(&cfg.Logging); len(faults) > 0 {
		cfg.Logging = builtin.Logging
		errs = append(errs, faults...)
	}
	if faults := validateTracing(&cfg.Tracing); len(faults) > 0 {
		cfg.Tracing = builtin.Tracing
		errs = append(errs, faults...)
	}
	if faults := validateJournal(&cfg.Journal); len(faults) > 0 {
		cfg.Journal = builtin.Journal
		errs = append(errs, faults...)
	}
	if faults := validateCatalog(&cfg.Catalog); len(faults) > 0 {
		cfg.Catalog = builtin.Catalog
		errs = append(errs, faults...)
	}
	return errs
}

func validateProvider(key string, entry ProviderEntry) []FieldError {
	if strings.TrimSpace(key) == "" {
		return []FieldError{{Field: "Providers", Message: "provider name must not be empty"}}
	}

	var errs []FieldError
	field := "Providers." + key
	if !slices.Contains(providerfactory.SupportedTypes, entry.Type) {
		errs = append(errs, FieldError{
			Field:   field + ".type",
			Message: fmt.Sprintf("unsupported provider type %q", entry.Type),
		})
	}
	if entry.BaseURL == "" && entry.Type != "stub" {
		errs = append(errs, FieldError{Field: field + ".api_base_url", Message: "field is required"})
	} else if entry.BaseURL != "" {
		if u, err := url.ParseRequestURI(entry.BaseURL); err != nil || u.Host == "" {
			errs = append(errs, FieldError{Field: field + ".api_base_url", Message: "must be an absolute URL"})
		}
	}
	if len(entry.Models) == 0 {
		errs = append(errs, FieldError{Field: field + ".models", Message: "at least one model is required"})
	}
	if entry.Timeout < 0 {
		errs = append(errs, FieldError{Field: field + ".timeout", Message: "must not be negative"})
	}
	return errs
}

func validateRoutes(routes map[string]string) []FieldError {
	var errs []FieldError
	for task, route := range routes {
		if strings.TrimSpace(task) == "" {
			errs = append(errs, FieldError{Field: "Router", Message: "task label must not be empty"})
			continue
		}
		if _, _, ok := SplitRoute(route); !ok {
			errs = append(errs, FieldError{
				Field:   "Router." + task,
				Message: fmt.Sprintf("route %q must be \"provider,model\" or \"provider\"", route),
			})
		}
	}
	slices.SortFunc(errs, func(a, b FieldError) int { return strings.Compare(a.Field, b.Field) })
	return errs
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(cfg.Level)) {
		errs = append(errs, FieldError{Field: "Logging.level", Message: "must be one of: debug, info, warn, error"})
	}
	if !slices.Contains([]string{"json", "text"}, strings.ToLower(cfg.Format)) {
		errs = append(errs, FieldError{Field: "Logging.format", Message: "must be one of: json, text"})
	}
	return errs
}

func validateTracing(cfg *TracingConfig) []FieldError {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return []FieldError{{Field: "Tracing.sample_ratio", Message: "must be between 0 and 1"}}
	}
	return nil
}

func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError
	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{Field: "Journal.backend", Message: "must be one of: memory, sqlite"})
	}
	if cfg.MaxEntries < 0 {
		errs = append(errs, FieldError{Field: "Journal.max_entries", Message: "must not be negative"})
	}
	return errs
}

func validateCatalog(cfg *CatalogConfig) []FieldError {
	var errs []FieldError
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{Field: "Catalog.schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)})
	}
	if cfg.Concurrency < 0 {
		errs = append(errs, FieldError{Field: "Catalog.concurrency", Message: "must not be negative"})
	}
	return errs
}
