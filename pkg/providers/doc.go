// Package providers defines the adapter contract shared by every model
// provider family and the HTTP plumbing the families are built on.
//
// # Overview
//
// An Adapter turns a provider-neutral chat history into one HTTP request in
// its family's wire format and turns the reply back into a Result. The
// families live in sub-packages:
//
//   - openai: chat-completions APIs (OpenAI, OpenRouter, DeepSeek and any
//     compatible endpoint)
//   - anthropic: the Messages API
//   - gemini: generateContent
//   - ollama: a self-hosted Ollama daemon
//   - stub: canned replies without network access
//
// # Degradation
//
// Send never fails. A missing credential, a transport failure, a timeout, a
// non-2xx status or a body that does not match the family's ResponseShape all
// produce a Result with Simulated set. The typed error that caused it is kept
// in Result.Cause:
//
//	res := adapter.Send(ctx, model, history, providers.DefaultOptions())
//	switch {
//	case errors.Is(res.Cause, providers.ErrNotConfigured):
//	    // no request was sent
//	case errors.Is(res.Cause, providers.ErrTransport):
//	    // the provider could not be reached or answered non-2xx
//	}
//
// No adapter retries. A failed attempt is reported immediately.
//
// # Response shapes
//
// Each family declares one ResponseShape and ExtractText parses only that
// shape. Result.Raw keeps the response body byte for byte.
package providers
