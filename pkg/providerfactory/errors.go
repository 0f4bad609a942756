package providerfactory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProviderNotFound is matched by ProviderNotFoundError.
var ErrProviderNotFound = errors.New("provider not found")

// ProviderNotFoundError is returned when a name is not registered.
type ProviderNotFoundError struct {
	// ProviderName is the requested name
	ProviderName string

	// AvailableProviders lists the registered names in insertion order
	AvailableProviders []string
}

// Error implements the error interface.
func (e *ProviderNotFoundError) Error() string {
	if len(e.AvailableProviders) == 0 {
		return fmt.Sprintf("provider %q not found (no providers registered)", e.ProviderName)
	}
	return fmt.Sprintf("provider %q not found (available: %s)",
		e.ProviderName, strings.Join(e.AvailableProviders, ", "))
}

// Is reports whether target is ErrProviderNotFound.
func (e *ProviderNotFoundError) Is(target error) bool {
	return target == ErrProviderNotFound
}
