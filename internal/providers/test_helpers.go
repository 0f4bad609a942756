package providers

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"mercator-hq/switchboard/pkg/providers"
)

// TestConfig returns a test provider configuration with a usable credential.
func TestConfig(name, providerType string, models ...string) providers.ProviderConfig {
	if len(models) == 0 {
		models = []string{"test-model"}
	}
	return providers.ProviderConfig{
		Name:    name,
		Type:    providerType,
		BaseURL: "http://localhost:8080",
		APIKey:  "test-key",
		Models:  models,
		Timeout: 5 * time.Second,
	}
}

// TestConfigWithURL returns a test config with a specific base URL.
func TestConfigWithURL(name, providerType, baseURL string, models ...string) providers.ProviderConfig {
	config := TestConfig(name, providerType, models...)
	config.BaseURL = baseURL
	return config
}

// TestHistory wraps prompt as a single user message.
func TestHistory(prompt string) []providers.Message {
	return []providers.Message{{Role: providers.RoleUser, Content: prompt}}
}

// DecodeBody unmarshals a recorded request body into a generic map.
func DecodeBody(t *testing.T, req RecordedRequest) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("failed to decode request body %q: %v", req.Body, err)
	}
	return body
}

// AssertReal fails the test unless res is a non-simulated reply with text.
func AssertReal(t *testing.T, res providers.Result, text string) {
	t.Helper()
	if res.Simulated {
		t.Fatalf("expected real result, got simulated: %s (cause: %v)", res.Text, res.Cause)
	}
	if res.Text != text {
		t.Fatalf("expected text %q, got %q", text, res.Text)
	}
}

// AssertSimulated fails the test unless res is simulated with a cause
// matching target.
func AssertSimulated(t *testing.T, res providers.Result, target error) {
	t.Helper()
	if !res.Simulated {
		t.Fatalf("expected simulated result, got real: %q", res.Text)
	}
	if res.Text == "" {
		t.Fatal("simulated result has empty text")
	}
	if target != nil && !errors.Is(res.Cause, target) {
		t.Fatalf("expected cause matching %v, got %T: %v", target, res.Cause, res.Cause)
	}
}

// AssertContains fails the test if haystack doesn't contain needle.
func AssertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
}
