// Package stub provides an adapter that answers locally with a canned
// chat-completions payload. It is used for offline runs and tests.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"mercator-hq/switchboard/pkg/providers"
)

// Type is the provider type served by this package.
const Type = "stub"

// DefaultReply prefixes every canned reply.
const DefaultReply = "stub reply"

// Call records one Send.
type Call struct {
	Model   string
	History []providers.Message
	Options providers.Options
}

// Option customizes a stub Provider.
type Option func(*Provider)

// WithReply replaces DefaultReply.
func WithReply(reply string) Option {
	return func(p *Provider) { p.reply = reply }
}

// WithFailure makes every Send fail as if the transport returned err.
func WithFailure(err error) Option {
	return func(p *Provider) { p.failure = err }
}

// Provider is the stub adapter.
type Provider struct {
	config  providers.ProviderConfig
	reply   string
	failure error

	mu    sync.Mutex
	calls []Call
	stats providers.Stats
}

// NewProvider creates a stub adapter. Models default to a single "stub" model.
func NewProvider(config providers.ProviderConfig, opts ...Option) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: Type,
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	config = config.Clone()
	config.Type = Type
	if len(config.Models) == 0 {
		config.Models = []string{"stub"}
	}

	p := &Provider{config: config, reply: DefaultReply}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Name() string                     { return p.config.Name }
func (p *Provider) Type() string                     { return Type }
func (p *Provider) Shape() providers.ResponseShape   { return providers.ShapeChatCompletions }
func (p *Provider) Config() providers.ProviderConfig { return p.config.Clone() }
func (p *Provider) GetModels() []string              { return slices.Clone(p.config.Models) }
func (p *Provider) ValidateConfig() bool             { return true }

// Payload returns the exact bytes Send reports as Result.Raw for the given
// model and history.
func (p *Provider) Payload(model string, history []providers.Message) []byte {
	text := p.reply
	if last := lastUserTurn(history); last != "" {
		text = fmt.Sprintf("%s: %s", p.reply, last)
	}

	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type choice struct {
		Index        int     `json:"index"`
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	}
	raw, _ := json.Marshal(struct {
		ID      string   `json:"id"`
		Object  string   `json:"object"`
		Model   string   `json:"model"`
		Choices []choice `json:"choices"`
	}{
		ID:     "stub-" + p.config.Name,
		Object: "chat.completion",
		Model:  model,
		Choices: []choice{{
			Message:      message{Role: providers.RoleAssistant, Content: text},
			FinishReason: "stop",
		}},
	})
	return raw
}

// Send answers without network access.
func (p *Provider) Send(ctx context.Context, model string, history []providers.Message, opts providers.Options) providers.Result {
	p.mu.Lock()
	p.calls = append(p.calls, Call{Model: model, History: slices.Clone(history), Options: opts})
	p.stats.Requests++
	p.mu.Unlock()

	var cause error
	if p.failure != nil {
		cause = &providers.TransportError{Provider: p.config.Name, Op: "send", Cause: p.failure}
	} else if err := ctx.Err(); err != nil {
		cause = &providers.TransportError{Provider: p.config.Name, Op: "send", Cause: err}
	}
	if cause != nil {
		p.mu.Lock()
		p.stats.Simulated++
		p.stats.Failures++
		p.stats.LastError = cause.Error()
		p.mu.Unlock()
		return providers.Simulate(p.config.Name, model, cause)
	}

	raw := p.Payload(model, history)
	text, err := providers.ExtractText(providers.ShapeChatCompletions, raw)
	if err != nil {
		return providers.Simulate(p.config.Name, model, &providers.ParseError{
			Provider: p.config.Name,
			Shape:    providers.ShapeChatCompletions,
			Cause:    err,
		})
	}
	return providers.Result{
		ModelUsed:    model,
		Text:         text,
		ProviderName: p.config.Name,
		Raw:          raw,
	}
}

// Calls returns the Sends received so far.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// Stats returns a snapshot of the request counters.
func (p *Provider) Stats() providers.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func lastUserTurn(history []providers.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == providers.RoleUser {
			return history[i].Content
		}
	}
	return ""
}
