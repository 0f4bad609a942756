package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providers"
)

func recorder() (*tracetest.SpanRecorder, *Tracer) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, NewWithProvider(tp)
}

func attrs(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestNew_Disabled(t *testing.T) {
	tr, err := New(context.Background(), config.TracingConfig{}, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tr.Enabled() {
		t.Error("disabled tracer reports enabled")
	}

	ctx, span := tr.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("noop span carries a trace id")
	}
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestSetResultAttributes(t *testing.T) {
	tests := []struct {
		name       string
		res        providers.Result
		wantStatus codes.Code
		wantReason string
	}{
		{
			name:       "real",
			res:        providers.Result{ProviderName: "openai", ModelUsed: "gpt-4", Text: "hi"},
			wantStatus: codes.Ok,
			wantReason: providers.ReasonOK,
		},
		{
			name:       "not configured",
			res:        providers.Simulate("openai", "gpt-4", &providers.NotConfiguredError{Provider: "openai"}),
			wantStatus: codes.Unset,
			wantReason: providers.ReasonNotConfigured,
		},
		{
			name: "transport failure",
			res: providers.Simulate("deepseek", "deepseek-coder",
				&providers.TransportError{Provider: "deepseek", Op: "POST", Cause: syscall.ECONNREFUSED}),
			wantStatus: codes.Error,
			wantReason: providers.ReasonTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr, tr := recorder()
			_, span := tr.Start(context.Background(), "dispatch")
			SetResultAttributes(span, tt.res, false)
			span.End()

			ended := sr.Ended()
			if len(ended) != 1 {
				t.Fatalf("ended spans = %d", len(ended))
			}
			if got := ended[0].Status().Code; got != tt.wantStatus {
				t.Errorf("status = %v, want %v", got, tt.wantStatus)
			}
			a := attrs(ended[0].Attributes())
			if a[AttrReason].AsString() != tt.wantReason {
				t.Errorf("reason = %q, want %q", a[AttrReason].AsString(), tt.wantReason)
			}
			if a[AttrSimulated].AsBool() != tt.res.Simulated {
				t.Errorf("simulated = %v", a[AttrSimulated].AsBool())
			}
		})
	}
}

func TestSetStatus(t *testing.T) {
	sr, tr := recorder()
	_, span := tr.Start(context.Background(), "op")
	SetStatus(span, errors.New("boom"))
	span.End()

	s := sr.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "boom" {
		t.Errorf("status = %+v", s.Status())
	}
	if len(s.Events()) == 0 {
		t.Error("error was not recorded as an event")
	}
}

func TestMiddleware(t *testing.T) {
	sr, tr := recorder()

	var inner string
	handler := Middleware(tr.Provider())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/routes", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	ended := sr.Ended()
	if len(ended) != 1 || ended[0].Name() != "GET /v1/routes" {
		t.Fatalf("spans = %v", ended)
	}
	if inner == "" || inner != ended[0].SpanContext().TraceID().String() {
		t.Errorf("handler saw trace id %q", inner)
	}
}

func TestNewSampler(t *testing.T) {
	for ratio, want := range map[float64]string{
		1:   "ParentBased{root:AlwaysOnSampler",
		0:   "ParentBased{root:AlwaysOffSampler",
		0.5: "ParentBased{root:TraceIDRatioBased{0.5}",
	} {
		if got := newSampler(ratio).Description(); len(got) < len(want) || got[:len(want)] != want {
			t.Errorf("newSampler(%v) = %q, want prefix %q", ratio, got, want)
		}
	}
}
