package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

var (
	// ErrNotConfigured is matched by NotConfiguredError.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrTransport is matched by every error that arises while talking to
	// a provider: connection failures, timeouts and non-2xx statuses.
	ErrTransport = errors.New("provider transport failure")

	// ErrParse is matched by ParseError.
	ErrParse = errors.New("provider response unparseable")

	// ErrNoProvider is the cause attached to results produced when no
	// provider is registered at all.
	ErrNoProvider = errors.New("no providers registered")
)

// Classification labels returned by Reason.
const (
	ReasonOK            = "ok"
	ReasonNotConfigured = "not_configured"
	ReasonTimeout       = "timeout"
	ReasonStatus        = "status"
	ReasonTransport     = "transport"
	ReasonParse         = "parse"
	ReasonNoProvider    = "no_provider"
	ReasonUnknown       = "unknown"
)

// NotConfiguredError is returned when a provider has no usable credential.
// Adapters never send a request in this state.
type NotConfiguredError struct {
	// Provider is the name of the unconfigured provider
	Provider string
}

// Error implements the error interface.
func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("provider %q has no usable API key", e.Provider)
}

// Is reports whether target is ErrNotConfigured.
func (e *NotConfiguredError) Is(target error) bool {
	return target == ErrNotConfigured
}

// ProviderError represents a non-2xx reply from a provider.
type ProviderError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code
	StatusCode int

	// Message is the error message, usually taken from the response body
	Message string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Is reports whether target is ErrTransport.
func (e *ProviderError) Is(target error) bool {
	return target == ErrTransport
}

// TransportError represents a failure to complete the HTTP exchange.
type TransportError struct {
	// Provider is the name of the provider being called
	Provider string

	// Op describes the failed step ("send", "read", "encode")
	Op string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("provider %q %s failed: %v", e.Provider, e.Op, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// TimeoutError represents a request that exceeded its deadline.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// Is reports whether target is ErrTransport or context.DeadlineExceeded.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTransport || target == context.DeadlineExceeded
}

// ParseError represents a 2xx body that does not match the declared shape.
type ParseError struct {
	// Provider is the name of the provider that returned the body
	Provider string

	// Shape is the envelope the adapter expected
	Shape ResponseShape

	// RawResponse is the body that failed to parse, truncated for logging
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error (%s): %v", e.Provider, e.Shape, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ConfigError represents a provider configuration that cannot produce an
// adapter at all, such as a missing name or an unparseable base URL.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// Reason maps a simulation cause to a short label.
func Reason(err error) string {
	var timeout *TimeoutError
	var status *ProviderError
	switch {
	case err == nil:
		return ReasonOK
	case errors.Is(err, ErrNotConfigured):
		return ReasonNotConfigured
	case errors.As(err, &timeout):
		return ReasonTimeout
	case errors.As(err, &status):
		return ReasonStatus
	case errors.Is(err, ErrTransport):
		return ReasonTransport
	case errors.Is(err, ErrParse):
		return ReasonParse
	case errors.Is(err, ErrNoProvider):
		return ReasonNoProvider
	default:
		return ReasonUnknown
	}
}

// classifyTransport turns an error from http.Client.Do into a typed error.
// Request URLs are dropped from the message since some families carry the
// credential in the query string.
func classifyTransport(provider, op string, timeout time.Duration, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Provider: provider, Timeout: timeout}
	}
	return &TransportError{Provider: provider, Op: op, Cause: err}
}
