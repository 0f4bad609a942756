// Package telemetry groups the observability packages of switchboard.
//
// # Components
//
//   - logging: slog loggers with credential redaction and dispatch ids
//   - metrics: Prometheus dispatch and provider metrics
//   - tracing: OpenTelemetry dispatch spans exported over OTLP gRPC
//   - health: liveness and readiness endpoints
//
// # Usage
//
//	logger, _ := logging.New(logging.Config{Level: "info", RedactSecrets: true})
//	tracer, _ := tracing.New(ctx, cfg.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//	collector := metrics.NewCollector(cfg.Metrics, nil)
//
//	router, _ := routing.New(cfg,
//	    routing.WithLogger(logger),
//	    routing.WithObserver(collector),
//	    routing.WithTracerProvider(tracer.Provider()),
//	)
//
// Each dispatch then logs with its dispatch id and task, increments
// switchboard_dispatches_total and records a "dispatch" span.
package telemetry
