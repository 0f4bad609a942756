package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/switchboard/pkg/providers"
)

// Span attribute keys. Custom keys use the "switchboard.*" namespace.
const (
	AttrDispatchID = "switchboard.dispatch_id"
	AttrTask       = "switchboard.task"
	AttrProvider   = "switchboard.provider"
	AttrModel      = "switchboard.model"
	AttrSimulated  = "switchboard.simulated"
	AttrReason     = "switchboard.reason"
	AttrFallback   = "switchboard.fallback"
)

// DispatchAttributes returns the attributes known when a dispatch starts.
func DispatchAttributes(id, task string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrDispatchID, id),
		attribute.String(AttrTask, task),
	}
}

// SetResultAttributes records the outcome of a dispatch on span. A
// simulated result caused by a failure marks the span as errored; one caused
// by a missing credential does not.
func SetResultAttributes(span trace.Span, res providers.Result, fallback bool) {
	span.SetAttributes(
		attribute.String(AttrProvider, res.ProviderName),
		attribute.String(AttrModel, res.ModelUsed),
		attribute.Bool(AttrSimulated, res.Simulated),
		attribute.String(AttrReason, res.Reason()),
		attribute.Bool(AttrFallback, fallback),
	)

	switch res.Reason() {
	case providers.ReasonOK:
		span.SetStatus(codes.Ok, "")
	case providers.ReasonNotConfigured:
		span.SetStatus(codes.Unset, "")
	default:
		SetStatus(span, res.Cause)
	}
}
