package anthropic

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"mercator-hq/switchboard/pkg/providers"
)

const (
	// Type is the provider type served by this package.
	Type = "anthropic"

	// DefaultBaseURL includes the API version segment.
	DefaultBaseURL = "https://api.anthropic.com/v1"

	// DefaultAnthropicVersion is the API version to use
	DefaultAnthropicVersion = "2023-06-01"

	// DefaultTimeout bounds a single Messages request.
	DefaultTimeout = 30 * time.Second
)

var defaultModels = []string{
	"claude-3-haiku-20240307",
	"claude-3-sonnet-20240229",
	"claude-3-opus-20240229",
}

// DefaultModels returns the built-in catalog.
func DefaultModels() []string {
	return slices.Clone(defaultModels)
}

// Provider is the Anthropic provider adapter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Anthropic adapter. A missing API key is not an
// error: the adapter simulates its replies until one is configured.
func NewProvider(config providers.ProviderConfig, opts ...providers.Option) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: Type,
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	config.Type = Type

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_base_url",
			Message:  err.Error(),
		}
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if len(config.Models) == 0 {
		config.Models = DefaultModels()
	}

	return &Provider{
		HTTPProvider: providers.NewHTTPProvider(config, providers.ShapeAnthropic, DefaultTimeout, opts...),
	}, nil
}

// ValidateConfig reports whether a usable API key is configured.
func (p *Provider) ValidateConfig() bool {
	return p.HasCredential()
}

// Send posts history to {base}/messages.
func (p *Provider) Send(ctx context.Context, model string, history []providers.Message, opts providers.Options) providers.Result {
	if !p.HasCredential() {
		return p.Simulate(model, &providers.NotConfiguredError{Provider: p.Name()})
	}

	headers := http.Header{}
	headers.Set("x-api-key", p.APIKey())
	headers.Set("anthropic-version", DefaultAnthropicVersion)

	return p.Complete(ctx, model, p.BaseURL()+"/messages", transformRequest(model, history, opts), headers)
}
