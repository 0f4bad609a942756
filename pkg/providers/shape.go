package providers

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ResponseShape names the response envelope of an adapter family.
// Each adapter declares exactly one shape and ExtractText only ever parses
// that shape, so overlapping key sets between families cannot be confused.
type ResponseShape int

const (
	// ShapeChatCompletions reads choices[0].message.content.
	ShapeChatCompletions ResponseShape = iota + 1

	// ShapeAnthropic reads the first content block of type "text".
	ShapeAnthropic

	// ShapeGemini reads candidates[0].content.parts[0].text.
	ShapeGemini

	// ShapeOllama reads message.content.
	ShapeOllama
)

// String returns the shape name.
func (s ResponseShape) String() string {
	switch s {
	case ShapeChatCompletions:
		return "chat_completions"
	case ShapeAnthropic:
		return "anthropic_messages"
	case ShapeGemini:
		return "gemini_generate_content"
	case ShapeOllama:
		return "ollama_chat"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

var errMissingPath = errors.New("expected field missing")

type chatCompletionsEnvelope struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type anthropicEnvelope struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
}

type geminiEnvelope struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type ollamaEnvelope struct {
	Message *struct {
		Content *string `json:"content"`
	} `json:"message"`
}

// ExtractText returns the reply text from raw according to shape.
// An empty string is a valid result; a missing path is an error.
func ExtractText(shape ResponseShape, raw []byte) (string, error) {
	switch shape {
	case ShapeChatCompletions:
		var env chatCompletionsEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", err
		}
		if len(env.Choices) == 0 {
			return "", fmt.Errorf("%w: no choices in response", errMissingPath)
		}
		if env.Choices[0].Message == nil || env.Choices[0].Message.Content == nil {
			return "", fmt.Errorf("%w: choices[0].message.content", errMissingPath)
		}
		return *env.Choices[0].Message.Content, nil

	case ShapeAnthropic:
		var env anthropicEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", err
		}
		for _, block := range env.Content {
			if block.Type == "text" && block.Text != nil {
				return *block.Text, nil
			}
		}
		return "", fmt.Errorf("%w: no text block in content", errMissingPath)

	case ShapeGemini:
		var env geminiEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", err
		}
		if len(env.Candidates) == 0 || env.Candidates[0].Content == nil {
			return "", fmt.Errorf("%w: candidates[0].content", errMissingPath)
		}
		parts := env.Candidates[0].Content.Parts
		if len(parts) == 0 || parts[0].Text == nil {
			return "", fmt.Errorf("%w: candidates[0].content.parts[0].text", errMissingPath)
		}
		return *parts[0].Text, nil

	case ShapeOllama:
		var env ollamaEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", err
		}
		if env.Message == nil || env.Message.Content == nil {
			return "", fmt.Errorf("%w: message.content", errMissingPath)
		}
		return *env.Message.Content, nil

	default:
		return "", fmt.Errorf("unsupported response shape %s", shape)
	}
}
