package gemini

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"mercator-hq/switchboard/pkg/providers"
)

const (
	// Type is the provider type served by this package.
	Type = "gemini"

	// DefaultBaseURL includes the API version segment.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTimeout bounds a single generateContent request.
	DefaultTimeout = 30 * time.Second
)

var defaultModels = []string{"gemini-pro", "gemini-1.5-pro", "gemini-1.5-flash", "gemini-1.0-pro"}

// DefaultModels returns the built-in catalog.
func DefaultModels() []string {
	return slices.Clone(defaultModels)
}

// Provider is the Gemini adapter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a Gemini adapter.
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
		HTTPProvider: providers.NewHTTPProvider(config, providers.ShapeGemini, DefaultTimeout, opts...),
	}, nil
}

// ValidateConfig reports whether a usable API key is configured.
func (p *Provider) ValidateConfig() bool {
	return p.HasCredential()
}

// Send posts history to {base}/models/{model}:generateContent.
func (p *Provider) Send(ctx context.Context, model string, history []providers.Message, opts providers.Options) providers.Result {
	if !p.HasCredential() {
		return p.Simulate(model, &providers.NotConfiguredError{Provider: p.Name()})
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.BaseURL(), url.PathEscape(model), url.QueryEscape(p.APIKey()))

	return p.Complete(ctx, model, endpoint, transformRequest(history, opts), nil)
}

// RefreshModels replaces the catalog with the listed generative models.
func (p *Provider) RefreshModels(ctx context.Context) error {
	if !p.HasCredential() {
		return &providers.NotConfiguredError{Provider: p.Name()}
	}

	var list modelList
	endpoint := fmt.Sprintf("%s/models?key=%s", p.BaseURL(), url.QueryEscape(p.APIKey()))
	if err := p.GetJSON(ctx, endpoint, nil, &list); err != nil {
		return err
	}
	ids := list.generativeModels()
	if len(ids) == 0 {
		return fmt.Errorf("provider %q listed no generative models", p.Name())
	}
	p.SetModels(ids)
	return nil
}
