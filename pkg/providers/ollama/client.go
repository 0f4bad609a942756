package ollama

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

const (
	// Type is the provider type served by this package.
	Type = "ollama"

	// DefaultBaseURL points at a local daemon.
	DefaultBaseURL = "http://localhost:11434/api"

	// DefaultTimeout is longer than the cloud families since local models
	// may need to be loaded before the first token.
	DefaultTimeout = 60 * time.Second

	// TagsTimeout bounds model discovery.
	TagsTimeout = 5 * time.Second
)

var defaultModels = []string{"llama3", "llama3:70b", "mistral", "codellama", "qwen2.5-coder", "phi3"}

// DefaultModels returns the built-in catalog.
func DefaultModels() []string {
	return slices.Clone(defaultModels)
}

type chatRequest struct {
	Model    string              `json:"model"`
	Messages []providers.Message `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  chatOptions         `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Provider is the Ollama adapter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates an Ollama adapter.
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
		HTTPProvider: providers.NewHTTPProvider(config, providers.ShapeOllama, DefaultTimeout, opts...),
	}, nil
}

// ValidateConfig always reports true; a local daemon needs no credential.
func (p *Provider) ValidateConfig() bool {
	return true
}

// Send posts history to {base}/chat.
func (p *Provider) Send(ctx context.Context, model string, history []providers.Message, opts providers.Options) providers.Result {
	req := &chatRequest{
		Model:    model,
		Messages: history,
		Options: chatOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}
	if req.Messages == nil {
		req.Messages = []providers.Message{}
	}
	return p.Complete(ctx, model, p.BaseURL()+"/chat", req, p.headers())
}

// RefreshModels replaces the catalog with the models installed on the daemon.
func (p *Provider) RefreshModels(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, TagsTimeout)
	defer cancel()

	var tags tagsResponse
	if err := p.GetJSON(ctx, p.BaseURL()+"/tags", p.headers(), &tags); err != nil {
		return err
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("provider %q has no models installed", p.Name())
	}
	p.SetModels(names)
	return nil
}

func (p *Provider) headers() http.Header {
	if !p.HasCredential() {
		return nil
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+p.APIKey())
	return h
}
