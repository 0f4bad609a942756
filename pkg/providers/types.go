package providers

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// Message roles understood by every adapter family.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request defaults applied when a caller does not override them.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// PlaceholderAPIKey marks a provider that has not been given a real credential.
const PlaceholderAPIKey = "sk-xxx"

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries the sampling parameters of a single Send.
type Options struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultOptions returns the options used when the caller overrides nothing.
func DefaultOptions() Options {
	return Options{Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens}
}

// Request is the provider-neutral form of a chat request.
// History is sent in the order given.
type Request struct {
	Model       string    `json:"model"`
	History     []Message `json:"history"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// NewRequest wraps prompt as a single user message with default options.
func NewRequest(model, prompt string) *Request {
	return &Request{
		Model:       model,
		History:     []Message{{Role: RoleUser, Content: prompt}},
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Options returns the sampling parameters of the request.
func (r *Request) Options() Options {
	return Options{Temperature: r.Temperature, MaxTokens: r.MaxTokens}
}

// Result is the provider-neutral outcome of a Send.
//
// Text is never empty. Raw holds the response body exactly as the provider
// returned it; for simulated results it holds a small locally built document
// describing why the call was not completed.
type Result struct {
	ModelUsed    string          `json:"model"`
	Text         string          `json:"response"`
	ProviderName string          `json:"provider"`
	Simulated    bool            `json:"simulated"`
	Raw          json.RawMessage `json:"raw,omitempty"`

	// Cause is the error that forced simulation. Nil for real results.
	Cause error `json:"-"`
}

// Reason classifies the result for logs and metrics.
func (r Result) Reason() string {
	if !r.Simulated {
		return ReasonOK
	}
	return Reason(r.Cause)
}

// ProviderConfig describes one configured provider.
type ProviderConfig struct {
	// Name identifies the provider within a registry.
	Name string `json:"name"`

	// Type selects the adapter family. Empty means "infer from the name".
	Type string `json:"type,omitempty"`

	// BaseURL includes the API version segment, e.g. https://api.openai.com/v1.
	BaseURL string `json:"api_base_url"`

	// APIKey is an opaque credential. Empty or PlaceholderAPIKey means unset.
	APIKey string `json:"api_key"`

	// Models is the static catalog, first entry is the provider default.
	Models []string `json:"models"`

	// Timeout bounds a single request. Zero selects the family default.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// HasCredential reports whether APIKey holds a usable credential.
func (c ProviderConfig) HasCredential() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != PlaceholderAPIKey
}

// Clone returns a copy that shares no slices with c.
func (c ProviderConfig) Clone() ProviderConfig {
	c.Models = slices.Clone(c.Models)
	return c
}

// Stats is a point-in-time view of an adapter's request counters.
type Stats struct {
	Requests    int64     `json:"requests"`
	Simulated   int64     `json:"simulated"`
	Failures    int64     `json:"failures"`
	LastError   string    `json:"last_error,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
}
