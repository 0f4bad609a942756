package tracing

import sdktrace "go.opentelemetry.io/otel/sdk/trace"

// newSampler samples ratio of new traces and follows the parent's decision
// for the rest, so a trace is either recorded whole or not at all.
func newSampler(ratio float64) sdktrace.Sampler {
	var base sdktrace.Sampler
	switch {
	case ratio >= 1:
		base = sdktrace.AlwaysSample()
	case ratio <= 0:
		base = sdktrace.NeverSample()
	default:
		base = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(base)
}
