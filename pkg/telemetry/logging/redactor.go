package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log attributes.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{patterns: []redactPattern{
		// OpenAI, Anthropic, OpenRouter and DeepSeek style keys
		{regexp.MustCompile(`sk-[A-Za-z0-9_\-]{3,}`), "sk-***"},
		// Authorization headers
		{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-._~+/]+=*`), "Bearer ***"},
		// Gemini query-string keys
		{regexp.MustCompile(`([?&]key=)[^&\s"]+`), "${1}***"},
		// api_key=..., api-key: ...
		{regexp.MustCompile(`(?i)(api[-_]?key["']?\s*[:=]\s*["']?)[^\s"',&]+`), "${1}***"},
	}}
}

// RedactString masks credentials found in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr that masks sensitive
// keys entirely and scrubs credentials out of other string and error values.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, RedactAPIKey(a.Value.String()))
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range []string{"api_key", "apikey", "authorization", "secret", "token", "password"} {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
