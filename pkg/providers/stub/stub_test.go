package stub

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"syscall"
	"testing"

	"mercator-hq/switchboard/pkg/providers"
)

func TestProvider_RoundTrip(t *testing.T) {
	p, err := NewProvider(providers.ProviderConfig{Name: "local-stub"})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	req := providers.NewRequest("stub", "hello")
	res := p.Send(context.Background(), req.Model, req.History, req.Options())

	if res.Simulated {
		t.Fatalf("unexpected simulated result: %v", res.Cause)
	}
	if !strings.Contains(res.Text, DefaultReply) {
		t.Errorf("Text = %q, want it to contain %q", res.Text, DefaultReply)
	}
	if !bytes.Equal(res.Raw, p.Payload(req.Model, req.History)) {
		t.Errorf("Raw = %s, want the exact stub payload", res.Raw)
	}

	calls := p.Calls()
	if len(calls) != 1 || calls[0].Options.Temperature != providers.DefaultTemperature || calls[0].Options.MaxTokens != providers.DefaultMaxTokens {
		t.Errorf("unexpected calls: %+v", calls)
	}
}

func TestProvider_Failure(t *testing.T) {
	p, err := NewProvider(providers.ProviderConfig{Name: "flaky"}, WithFailure(syscall.ECONNREFUSED))
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	res := p.Send(context.Background(), "stub", []providers.Message{{Role: providers.RoleUser, Content: "x"}}, providers.DefaultOptions())
	if !res.Simulated {
		t.Fatal("expected simulated result")
	}
	if !errors.Is(res.Cause, providers.ErrTransport) || !errors.Is(res.Cause, syscall.ECONNREFUSED) {
		t.Errorf("Cause = %v", res.Cause)
	}
	if !strings.Contains(res.Text, "connection refused") {
		t.Errorf("Text = %q, want embedded error", res.Text)
	}
}
