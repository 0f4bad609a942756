package anthropic

import (
	"strings"

	"mercator-hq/switchboard/pkg/providers"
)

// messagesRequest is the Messages API request body.
type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func transformRequest(model string, history []providers.Message, opts providers.Options) *messagesRequest {
	req := &messagesRequest{
		Model:       model,
		Messages:    make([]message, 0, len(history)),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	// max_tokens is mandatory for this API
	if req.MaxTokens <= 0 {
		req.MaxTokens = providers.DefaultMaxTokens
	}

	var system []string
	for _, msg := range history {
		role := msg.Role
		switch role {
		case providers.RoleSystem:
			system = append(system, msg.Content)
			continue
		case providers.RoleAssistant:
		default:
			role = providers.RoleUser
		}

		if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == role {
			req.Messages[n-1].Content += "\n\n" + msg.Content
			continue
		}
		req.Messages = append(req.Messages, message{Role: role, Content: msg.Content})
	}
	req.System = strings.Join(system, "\n\n")

	return req
}
