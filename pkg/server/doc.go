// Package server exposes a switchboard router over HTTP.
//
// Routes:
//
//	POST /v1/dispatch          dispatch a prompt for a task label
//	GET  /v1/routes            list the route table
//	GET  /v1/routes/{task}     resolve one task
//	PUT  /v1/routes/{task}     point a task at "provider,model"
//	GET  /v1/providers         list registered providers (credentials omitted)
//	POST /v1/providers         add or replace a provider
//	GET  /v1/journal           recent dispatches, newest first
//	GET  /v1/stats             dispatch counters
//	GET  /healthz, /readyz     liveness and readiness
//	GET  /version              build information
//
// A dispatch always answers 200: provider failures come back as simulated
// results, exactly as routing.Router.Dispatch returns them.
package server
