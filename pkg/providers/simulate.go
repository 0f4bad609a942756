package providers

import (
	"encoding/json"
	"errors"
	"fmt"
)

type simulatedPayload struct {
	Simulated bool   `json:"simulated"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Reason    string `json:"reason"`
	Error     string `json:"error,omitempty"`
}

// Simulate builds the degraded result returned in place of a real reply.
// The text embeds the model name and, for failures, the error text.
func Simulate(provider, model string, cause error) Result {
	var text string
	switch {
	case cause == nil:
		text = fmt.Sprintf("[simulated %s] no reply was requested", label(provider, model))
	case errors.Is(cause, ErrNotConfigured):
		text = fmt.Sprintf("[simulated %s] provider is not configured with an API key; set one to get real replies", label(provider, model))
	case errors.Is(cause, ErrNoProvider):
		text = fmt.Sprintf("[simulated %s] no providers are registered", label(provider, model))
	default:
		text = fmt.Sprintf("[simulated %s] request failed: %v", label(provider, model), cause)
	}

	payload := simulatedPayload{
		Simulated: true,
		Provider:  provider,
		Model:     model,
		Reason:    Reason(cause),
	}
	if cause != nil {
		payload.Error = cause.Error()
	}
	raw, _ := json.Marshal(payload)

	return Result{
		ModelUsed:    model,
		Text:         text,
		ProviderName: provider,
		Simulated:    true,
		Raw:          raw,
		Cause:        cause,
	}
}

// EmptyReplyText is substituted when a provider returns an empty reply.
func EmptyReplyText(provider, model string) string {
	return fmt.Sprintf("[%s returned an empty reply]", label(provider, model))
}

func label(provider, model string) string {
	switch {
	case provider == "" && model == "":
		return "response"
	case provider == "":
		return model
	case model == "":
		return provider
	default:
		return provider + "/" + model
	}
}
