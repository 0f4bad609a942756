package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports a configuration file, or part of one, that could not
// be used. Load recovers from it: read and parse failures fall back to the
// built-in defaults, and validate failures drop only the faulty entries.
type ConfigError struct {
	// Path is the configuration file
	Path string

	// Op is the failed step: "read", "parse", "validate" or "write"
	Op string

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
