package providerfactory

import (
	"fmt"
	"strings"

	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/providers/anthropic"
	"mercator-hq/switchboard/pkg/providers/gemini"
	"mercator-hq/switchboard/pkg/providers/ollama"
	"mercator-hq/switchboard/pkg/providers/openai"
	"mercator-hq/switchboard/pkg/providers/stub"
)

// SupportedTypes lists the provider types NewAdapter understands.
var SupportedTypes = []string{
	openai.TypeOpenAI,
	openai.TypeOpenRouter,
	openai.TypeDeepSeek,
	openai.TypeGeneric,
	anthropic.Type,
	gemini.Type,
	ollama.Type,
	stub.Type,
}

// NewAdapter creates the adapter for config.
//
// The adapter family is taken from config.Type. If it is empty, it is
// inferred from the provider name:
//   - "openai", "openrouter", "deepseek" -> chat completions with that type's defaults
//   - "anthropic", "claude" -> Anthropic Messages
//   - "gemini", "google" -> Gemini generateContent
//   - "ollama" -> Ollama
//   - "stub", "local-stub" -> canned local replies
//   - Everything else -> generic chat completions
//
// Example:
//
//	adapter, err := NewAdapter(providers.ProviderConfig{
//	    Name:   "deepseek",
//	    APIKey: os.Getenv("DEEPSEEK_API_KEY"),
//	})
func NewAdapter(config providers.ProviderConfig, opts ...providers.Option) (providers.Adapter, error) {
	if config.Type == "" {
		config.Type = InferType(config.Name)
	}

	var (
		adapter providers.Adapter
		err     error
	)
	switch config.Type {
	case openai.TypeOpenAI, openai.TypeOpenRouter, openai.TypeDeepSeek, openai.TypeGeneric:
		adapter, err = openai.NewProvider(config, opts...)

	case anthropic.Type:
		adapter, err = anthropic.NewProvider(config, opts...)

	case gemini.Type:
		adapter, err = gemini.NewProvider(config, opts...)

	case ollama.Type:
		adapter, err = ollama.NewProvider(config, opts...)

	case stub.Type:
		adapter, err = stub.NewProvider(config)

	default:
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "type",
			Message: fmt.Sprintf("unsupported provider type: %q (supported: %s)",
				config.Type, strings.Join(SupportedTypes, ", ")),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", config.Name, err)
	}
	return adapter, nil
}

// InferType infers the provider type from the provider name. A name matches
// a type when it equals it or starts with it followed by '-' or '_'.
func InferType(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	aliases := []struct {
		prefix string
		typ    string
	}{
		{"openrouter", openai.TypeOpenRouter},
		{"openai", openai.TypeOpenAI},
		{"deepseek", openai.TypeDeepSeek},
		{"anthropic", anthropic.Type},
		{"claude", anthropic.Type},
		{"gemini", gemini.Type},
		{"google", gemini.Type},
		{"ollama", ollama.Type},
		{"local-stub", stub.Type},
		{"stub", stub.Type},
	}
	for _, a := range aliases {
		if name == a.prefix || strings.HasPrefix(name, a.prefix+"-") || strings.HasPrefix(name, a.prefix+"_") {
			return a.typ
		}
	}
	return openai.TypeGeneric
}

// DefaultModels returns the built-in catalog for a provider type, or nil if
// the type has none.
func DefaultModels(typ string) []string {
	switch typ {
	case openai.TypeOpenAI, openai.TypeOpenRouter, openai.TypeDeepSeek, openai.TypeGeneric:
		return openai.DefaultModels(typ)
	case anthropic.Type:
		return anthropic.DefaultModels()
	case gemini.Type:
		return gemini.DefaultModels()
	case ollama.Type:
		return ollama.DefaultModels()
	case stub.Type:
		return []string{"stub"}
	default:
		return nil
	}
}

// DefaultBaseURL returns the built-in base URL for a provider type.
func DefaultBaseURL(typ string) string {
	switch typ {
	case openai.TypeOpenAI, openai.TypeOpenRouter, openai.TypeDeepSeek, openai.TypeGeneric:
		return openai.DefaultBaseURL(typ)
	case anthropic.Type:
		return anthropic.DefaultBaseURL
	case gemini.Type:
		return gemini.DefaultBaseURL
	case ollama.Type:
		return ollama.DefaultBaseURL
	default:
		return ""
	}
}
