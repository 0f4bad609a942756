package routing

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providers"
)

// DefaultTask is the task label every unknown task resolves through.
const DefaultTask = "default"

// Route names the provider and model that serve a task. An empty Model means
// the provider's first catalog model.
type Route struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// String returns the route in "provider,model" form.
func (r Route) String() string {
	if r.Model == "" {
		return r.Provider
	}
	return r.Provider + "," + r.Model
}

// IsZero reports whether the route names no provider.
func (r Route) IsZero() bool { return r.Provider == "" }

// ParseRoute parses "provider,model" (or just "provider"), splitting on the
// first comma so model names may contain commas.
func ParseRoute(s string) (Route, error) {
	provider, model, ok := config.SplitRoute(s)
	if !ok {
		return Route{}, &InvalidRouteError{Route: s}
	}
	return Route{Provider: provider, Model: model}, nil
}

// FirstProvider supplies the last-resort route when neither the task nor
// DefaultTask has one.
type FirstProvider interface {
	First() (providers.Adapter, bool)
}

// Table maps task labels to routes. It is safe for concurrent use.
type Table struct {
	mu       sync.RWMutex
	routes   map[string]Route
	fallback FirstProvider
}

// NewTable creates a table from routes. fallback may be nil, in which case
// Resolve returns the zero Route when nothing matches.
func NewTable(routes map[string]Route, fallback FirstProvider) *Table {
	t := &Table{
		routes:   make(map[string]Route, len(routes)),
		fallback: fallback,
	}
	maps.Copy(t.routes, routes)
	return t
}

// ParseTable parses the Router section of a configuration. Malformed entries
// are skipped and reported together.
func ParseTable(raw map[string]string, fallback FirstProvider) (*Table, error) {
	routes := make(map[string]Route, len(raw))
	var bad []string
	for _, task := range slices.Sorted(maps.Keys(raw)) {
		route, err := ParseRoute(raw[task])
		if err != nil {
			bad = append(bad, task)
			continue
		}
		routes[task] = route
	}

	t := NewTable(routes, fallback)
	if len(bad) > 0 {
		return t, fmt.Errorf("skipped malformed routes for tasks %v: %w", bad, ErrInvalidRoute)
	}
	return t, nil
}

// Resolve returns the route for task. It never fails: an unknown task uses
// DefaultTask, and a missing DefaultTask uses the first registered provider
// and its first model. Only an empty table with no providers yields the zero
// Route.
func (t *Table) Resolve(task string) Route {
	t.mu.RLock()
	route, ok := t.routes[task]
	if !ok {
		route, ok = t.routes[DefaultTask]
	}
	t.mu.RUnlock()
	if ok {
		return route
	}

	if t.fallback == nil {
		return Route{}
	}
	adapter, ok := t.fallback.First()
	if !ok {
		return Route{}
	}
	return Route{Provider: adapter.Name(), Model: firstModel(adapter)}
}

// Lookup returns the route configured for exactly task.
func (t *Table) Lookup(task string) (Route, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	route, ok := t.routes[task]
	if !ok {
		return Route{}, &UnknownRouteError{Task: task, AvailableTasks: t.tasksLocked()}
	}
	return route, nil
}

// Update inserts or replaces the route for task. It is visible to the next
// Resolve.
func (t *Table) Update(task string, route Route) error {
	if task == "" {
		return &InvalidRouteError{Task: task, Route: route.String(), Reason: "task label must not be empty"}
	}
	if route.Provider == "" {
		return &InvalidRouteError{Task: task, Route: route.String(), Reason: "provider must not be empty"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[task] = route
	return nil
}

// Delete removes the route for task.
func (t *Table) Delete(task string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.routes, task)
}

// Routes returns a snapshot of the table.
func (t *Table) Routes() map[string]Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.routes)
}

// Tasks returns the configured task labels, sorted.
func (t *Table) Tasks() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tasksLocked()
}

// Strings returns the table in configuration form.
func (t *Table) Strings() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]string, len(t.routes))
	for task, route := range t.routes {
		out[task] = route.String()
	}
	return out
}

func (t *Table) tasksLocked() []string {
	return slices.Sorted(maps.Keys(t.routes))
}

func firstModel(a providers.Adapter) string {
	if models := a.GetModels(); len(models) > 0 {
		return models[0]
	}
	return ""
}
