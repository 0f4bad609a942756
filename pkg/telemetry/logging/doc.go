// Package logging builds the process logger.
//
// New returns a *slog.Logger writing JSON or text. Records logged with a
// context carry the dispatch id and task label stored by WithDispatchID and
// WithTask. With RedactSecrets, credential-looking values are masked:
//
//   - sk-abc123xyz → sk-***
//   - Authorization: Bearer abc → Bearer ***
//   - ...:generateContent?key=AIza... → ?key=***
//   - attributes named api_key, token, secret → first four characters + ***
//
// Components accept a *slog.Logger and fall back to slog.Default() when
// given nil.
package logging
