// Package openai implements the chat-completions adapter family.
//
// The same wire format is spoken by OpenAI, OpenRouter, DeepSeek and many
// self-hosted gateways, so one adapter serves them all. The provider type
// selects the default base URL and model catalog:
//
//	openai      https://api.openai.com/v1
//	openrouter  https://openrouter.ai/api/v1
//	deepseek    https://api.deepseek.com/v1
//	generic     (base URL and models must be configured)
//
// Requests go to {base}/chat/completions with a bearer token, and the reply
// is read as providers.ShapeChatCompletions.
package openai
