// Package ollama implements the adapter for a self-hosted Ollama daemon.
//
// Requests go to {base}/chat with streaming disabled. A local daemon needs
// no credential, so ValidateConfig is always true; a configured key is sent
// as a bearer token for daemons behind an authenticating proxy. RefreshModels
// reads the installed models from {base}/tags.
package ollama
