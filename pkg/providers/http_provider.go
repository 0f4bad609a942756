package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// Option customizes an HTTPProvider.
type Option func(*HTTPProvider)

// WithLogger sets the logger used by the adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(p *HTTPProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithHTTPClient replaces the pooled client built from the configuration.
func WithHTTPClient(client *http.Client) Option {
	return func(p *HTTPProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// HTTPProvider is the shared base of the HTTP adapter families. It owns the
// pooled client, the refreshable model catalog and the request counters.
//
// Every Send goes through Complete, which makes exactly one attempt and turns
// any failure into a simulated Result.
type HTTPProvider struct {
	config  ProviderConfig
	shape   ResponseShape
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger

	// mu protects models and stats
	mu     sync.RWMutex
	models []string
	stats  Stats
}

// NewHTTPProvider creates the base for an adapter family. defaultTimeout is
// used when the configuration does not carry a positive timeout.
func NewHTTPProvider(config ProviderConfig, shape ResponseShape, defaultTimeout time.Duration, opts ...Option) *HTTPProvider {
	config = config.Clone()

	timeout := defaultTimeout
	if config.Timeout > 0 {
		timeout = config.Timeout
	}
	config.Timeout = timeout

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	p := &HTTPProvider{
		config:  config,
		shape:   shape,
		timeout: timeout,
		client:  &http.Client{Transport: transport},
		models:  slices.Clone(config.Models),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "provider", "provider", config.Name)

	return p
}

// Name returns the provider name.
func (p *HTTPProvider) Name() string { return p.config.Name }

// Type returns the adapter family.
func (p *HTTPProvider) Type() string { return p.config.Type }

// Shape returns the declared response shape.
func (p *HTTPProvider) Shape() ResponseShape { return p.shape }

// Timeout returns the effective per-request timeout.
func (p *HTTPProvider) Timeout() time.Duration { return p.timeout }

// Logger returns the adapter's logger.
func (p *HTTPProvider) Logger() *slog.Logger { return p.logger }

// Config returns a copy of the configuration, with Models reflecting the
// current catalog.
func (p *HTTPProvider) Config() ProviderConfig {
	cfg := p.config.Clone()
	cfg.Models = p.GetModels()
	return cfg
}

// BaseURL returns the configured base URL.
func (p *HTTPProvider) BaseURL() string { return p.config.BaseURL }

// APIKey returns the configured credential.
func (p *HTTPProvider) APIKey() string { return p.config.APIKey }

// HasCredential reports whether the configuration carries a usable API key.
func (p *HTTPProvider) HasCredential() bool { return p.config.HasCredential() }

// GetModels returns a copy of the current catalog.
func (p *HTTPProvider) GetModels() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.models)
}

// SetModels replaces the catalog. An empty list is ignored so a catalog
// never becomes empty once populated.
func (p *HTTPProvider) SetModels(models []string) {
	if len(models) == 0 {
		return
	}
	p.mu.Lock()
	p.models = slices.Clone(models)
	p.mu.Unlock()
}

// Stats returns a snapshot of the request counters.
func (p *HTTPProvider) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// Simulate records and returns a simulated result for model.
func (p *HTTPProvider) Simulate(model string, cause error) Result {
	p.mu.Lock()
	p.stats.Requests++
	p.stats.Simulated++
	if cause != nil && Reason(cause) != ReasonNotConfigured {
		p.stats.Failures++
		p.stats.LastError = cause.Error()
	}
	p.mu.Unlock()

	if Reason(cause) == ReasonNotConfigured {
		p.logger.Debug("provider not configured, simulating reply", "model", model)
	} else {
		p.logger.Warn("provider call failed, simulating reply",
			"model", model,
			"reason", Reason(cause),
			"error", cause,
		)
	}
	return Simulate(p.config.Name, model, cause)
}

// Complete POSTs body to url once and normalizes the reply according to the
// adapter's shape. It never returns an error.
func (p *HTTPProvider) Complete(ctx context.Context, model, url string, body any, header http.Header) Result {
	start := time.Now()
	raw, err := p.Do(ctx, http.MethodPost, url, body, header)
	if err != nil {
		return p.Simulate(model, err)
	}

	text, err := ExtractText(p.shape, raw)
	if err != nil {
		return p.Simulate(model, &ParseError{
			Provider:    p.config.Name,
			Shape:       p.shape,
			RawResponse: truncate(string(raw), 512),
			Cause:       err,
		})
	}
	if strings.TrimSpace(text) == "" {
		text = EmptyReplyText(p.config.Name, model)
	}

	p.mu.Lock()
	p.stats.Requests++
	p.stats.LastSuccess = time.Now()
	p.mu.Unlock()

	p.logger.Debug("provider call completed",
		"model", model,
		"duration", time.Since(start),
		"response_bytes", len(raw),
	)

	return Result{
		ModelUsed:    model,
		Text:         text,
		ProviderName: p.config.Name,
		Raw:          raw,
	}
}

// Do performs a single HTTP request bounded by the adapter timeout and
// returns the response body of a 2xx reply. Non-2xx replies become a
// *ProviderError, everything else a *TransportError or *TimeoutError.
func (p *HTTPProvider) Do(ctx context.Context, method, url string, body any, header http.Header) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Provider: p.config.Name, Op: "encode", Cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &TransportError{Provider: p.config.Name, Op: "build request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	p.logger.Debug("sending provider request", "method", method, "path", req.URL.Path)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyTransport(p.config.Name, "send", p.timeout, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransport(p.config.Name, "read", p.timeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, data),
		}
	}
	return data, nil
}

// GetJSON issues a GET and decodes a 2xx body into out.
func (p *HTTPProvider) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	data, err := p.Do(ctx, http.MethodGet, url, nil, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ParseError{
			Provider:    p.config.Name,
			Shape:       p.shape,
			RawResponse: truncate(string(data), 512),
			Cause:       err,
		}
	}
	return nil
}

// errorMessage extracts a readable message from an error body. It knows the
// {"error":{"message":...}} and {"error":"..."} forms used by the supported
// families and falls back to the raw body.
func errorMessage(status int, body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return truncate(text, 256)
	}
	return http.StatusText(status)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...(%d bytes)", s[:n], len(s))
}
