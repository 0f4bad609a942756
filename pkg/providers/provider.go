package providers

import "context"

// Adapter is the contract every provider family implements.
//
// Send never returns an error. Anything that prevents a real reply (a missing
// credential, a transport failure, a non-2xx status, an unparseable body) is
// folded into a Result with Simulated set and Cause describing the failure.
// Implementations must be safe for concurrent use.
//
// Example:
//
//	adapter, _ := openai.NewProvider(cfg)
//	res := adapter.Send(ctx, "gpt-4", []providers.Message{
//	    {Role: providers.RoleUser, Content: "Hello!"},
//	}, providers.DefaultOptions())
//	if res.Simulated {
//	    log.Printf("no real reply: %v", res.Cause)
//	}
//	fmt.Println(res.Text)
type Adapter interface {
	// Name returns the provider name this adapter was configured with.
	Name() string

	// Type returns the adapter family (e.g. "openai", "anthropic", "ollama").
	Type() string

	// Shape returns the response envelope this adapter parses.
	Shape() ResponseShape

	// Config returns a copy of the provider configuration.
	Config() ProviderConfig

	// GetModels returns the current model catalog. It never performs I/O
	// and never returns an empty list for a registered adapter.
	GetModels() []string

	// ValidateConfig reports whether the adapter holds a usable credential.
	ValidateConfig() bool

	// Send performs at most one request to the provider.
	Send(ctx context.Context, model string, history []Message, opts Options) Result
}

// ModelRefresher is implemented by adapters that can discover their model
// catalog from the provider. A failed refresh keeps the previous catalog.
type ModelRefresher interface {
	RefreshModels(ctx context.Context) error
}

// StatsReporter is implemented by adapters that count their requests.
type StatsReporter interface {
	Stats() Stats
}
