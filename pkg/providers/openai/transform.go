package openai

import "mercator-hq/switchboard/pkg/providers"

// chatRequest is the chat-completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// modelList is the body of GET {base}/models.
type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func transformRequest(model string, history []providers.Message, opts providers.Options) *chatRequest {
	messages := make([]chatMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}
	return &chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
}

func (l *modelList) ids() []string {
	ids := make([]string, 0, len(l.Data))
	for _, m := range l.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids
}
