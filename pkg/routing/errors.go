package routing

import (
	"errors"
	"fmt"
	"strings"

	"mercator-hq/switchboard/pkg/providerfactory"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrUnknownRoute is returned by Table.Lookup for a task with no route.
	// Dispatch never returns it; unknown tasks use DefaultTask.
	ErrUnknownRoute = errors.New("no route for task")

	// ErrInvalidRoute is returned for malformed route strings and updates.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrProviderNotFound is matched when a route names a provider that is
	// not registered. Dispatch recovers by using the first provider.
	ErrProviderNotFound = providerfactory.ErrProviderNotFound
)

// UnknownRouteError is returned when a task has no route of its own.
type UnknownRouteError struct {
	// Task is the requested task label.
	Task string

	// AvailableTasks lists the configured task labels.
	AvailableTasks []string
}

// Error implements the error interface.
func (e *UnknownRouteError) Error() string {
	return fmt.Sprintf("no route for task %q (configured tasks: %s)",
		e.Task, strings.Join(e.AvailableTasks, ", "))
}

// Is implements error matching for errors.Is().
func (e *UnknownRouteError) Is(target error) bool {
	return target == ErrUnknownRoute
}

// InvalidRouteError is returned when a route cannot be parsed or stored.
type InvalidRouteError struct {
	Task   string
	Route  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidRouteError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = `expected "provider,model" or "provider"`
	}
	if e.Task == "" {
		return fmt.Sprintf("invalid route %q: %s", e.Route, reason)
	}
	return fmt.Sprintf("invalid route %q for task %q: %s", e.Route, e.Task, reason)
}

// Is implements error matching for errors.Is().
func (e *InvalidRouteError) Is(target error) bool {
	return target == ErrInvalidRoute
}
