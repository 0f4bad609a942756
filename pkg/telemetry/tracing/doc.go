// Package tracing configures OpenTelemetry for switchboard.
//
// New builds an OTLP/gRPC exporting TracerProvider, or a noop one when
// tracing is disabled. The router starts one span per dispatch, named
// "dispatch", carrying the task, the provider and model that served it and
// whether the result was simulated. Middleware adds server spans to the
// HTTP API and continues incoming traceparent headers.
package tracing
