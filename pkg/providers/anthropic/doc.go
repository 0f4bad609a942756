// Package anthropic implements the Anthropic Messages API adapter.
//
// Requests go to {base}/messages with the x-api-key and anthropic-version
// headers. System turns are lifted out of the history into the top-level
// system field, and consecutive turns from the same role are merged since
// the API expects user and assistant turns to alternate. Replies are read as
// providers.ShapeAnthropic.
package anthropic
