// Package metrics exposes Prometheus metrics for switchboard.
//
// A Collector is handed to the router and the catalog refresher as their
// observer. Dispatches are counted by task, provider and outcome reason
// ("ok", "not_configured", "timeout", "status", "transport", "parse",
// "no_provider"); task labels beyond DefaultMaxTasks distinct values are
// reported as "other".
//
// Recording is a no-op unless MetricsConfig.Enabled is set.
package metrics
