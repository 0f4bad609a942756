package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"mercator-hq/switchboard/pkg/providers"
)

// Provider types served by this package.
const (
	TypeOpenAI     = "openai"
	TypeOpenRouter = "openrouter"
	TypeDeepSeek   = "deepseek"
	TypeGeneric    = "generic"
)

// DefaultTimeout bounds a single chat-completions request.
const DefaultTimeout = 30 * time.Second

type flavor struct {
	baseURL string
	models  []string
}

var flavors = map[string]flavor{
	TypeOpenAI: {
		baseURL: "https://api.openai.com/v1",
		models:  []string{"gpt-3.5-turbo", "gpt-4", "gpt-4-turbo", "gpt-4o"},
	},
	TypeOpenRouter: {
		baseURL: "https://openrouter.ai/api/v1",
		models: []string{
			"openai/gpt-3.5-turbo",
			"openai/gpt-4",
			"anthropic/claude-3-haiku",
			"anthropic/claude-3-sonnet",
			"google/gemini-pro",
			"meta-llama/llama-3-70b-instruct",
			"mistralai/mistral-7b-instruct",
		},
	},
	TypeDeepSeek: {
		baseURL: "https://api.deepseek.com/v1",
		models:  []string{"deepseek-chat", "deepseek-coder"},
	},
	TypeGeneric: {},
}

// Supports reports whether typ is served by this package.
func Supports(typ string) bool {
	_, ok := flavors[typ]
	return ok
}

// DefaultModels returns the built-in catalog for typ.
func DefaultModels(typ string) []string {
	return slices.Clone(flavors[typ].models)
}

// DefaultBaseURL returns the built-in base URL for typ.
func DefaultBaseURL(typ string) string {
	return flavors[typ].baseURL
}

// Provider is the chat-completions adapter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a chat-completions adapter. An empty Type means
// TypeOpenAI; missing base URL and models are taken from the type defaults.
// A missing API key is not an error: the adapter simulates its replies.
func NewProvider(config providers.ProviderConfig, opts ...providers.Option) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: TypeOpenAI,
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.Type == "" {
		config.Type = TypeOpenAI
	}
	defaults, ok := flavors[config.Type]
	if !ok {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported chat-completions type %q", config.Type),
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = defaults.baseURL
	}
	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_base_url",
			Message:  "base URL is required for generic providers",
		}
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
		config.Models = slices.Clone(defaults.models)
	}
	if len(config.Models) == 0 {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "models",
			Message:  "at least one model is required",
		}
	}

	return &Provider{
		HTTPProvider: providers.NewHTTPProvider(config, providers.ShapeChatCompletions, DefaultTimeout, opts...),
	}, nil
}

// ValidateConfig reports whether a usable API key is configured.
func (p *Provider) ValidateConfig() bool {
	return p.HasCredential()
}

// Send posts history to {base}/chat/completions.
func (p *Provider) Send(ctx context.Context, model string, history []providers.Message, opts providers.Options) providers.Result {
	if !p.HasCredential() {
		return p.Simulate(model, &providers.NotConfiguredError{Provider: p.Name()})
	}
	return p.Complete(ctx, model, p.endpoint("/chat/completions"), transformRequest(model, history, opts), p.authHeader())
}

// RefreshModels replaces the catalog with the ids listed by {base}/models.
func (p *Provider) RefreshModels(ctx context.Context) error {
	if !p.HasCredential() {
		return &providers.NotConfiguredError{Provider: p.Name()}
	}

	var list modelList
	if err := p.GetJSON(ctx, p.endpoint("/models"), p.authHeader(), &list); err != nil {
		return err
	}
	ids := list.ids()
	if len(ids) == 0 {
		return fmt.Errorf("provider %q listed no models", p.Name())
	}
	p.SetModels(ids)
	return nil
}

func (p *Provider) endpoint(path string) string {
	return p.BaseURL() + path
}

func (p *Provider) authHeader() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+p.APIKey())
	return h
}
