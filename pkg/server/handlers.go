package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/journal"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/telemetry/logging"
)

// DefaultJournalLimit is the page size of GET /v1/journal.
const DefaultJournalLimit = 50

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var redactor = logging.NewRedactor()

// DispatchRequest is the body of POST /v1/dispatch.
type DispatchRequest struct {
	Task        string              `json:"task"`
	Prompt      string              `json:"prompt"`
	History     []providers.Message `json:"history,omitempty"`
	Temperature *float64            `json:"temperature,omitempty"`
	MaxTokens   *int                `json:"max_tokens,omitempty"`
}

// RouteRequest is the body of PUT /v1/routes/{task}. Either Route
// ("provider,model") or Provider and Model may be given.
type RouteRequest struct {
	Route    string `json:"route,omitempty"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// RouteView is one route table entry.
type RouteView struct {
	Task     string `json:"task"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ProviderView describes a registered provider. It never carries the
// credential.
type ProviderView struct {
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	BaseURL    string           `json:"api_base_url"`
	Models     []string         `json:"models"`
	Configured bool             `json:"configured"`
	Stats      *providers.Stats `json:"stats,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	task := req.Task
	if task == "" {
		task = routing.DefaultTask
	}

	var opts []routing.DispatchOption
	if len(req.History) > 0 {
		opts = append(opts, routing.WithHistory(req.History))
	}
	if req.Temperature != nil {
		opts = append(opts, routing.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens != nil {
		opts = append(opts, routing.WithMaxTokens(*req.MaxTokens))
	}

	res := s.router.Dispatch(r.Context(), task, req.Prompt, opts...)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	table := s.router.Table()
	routes := table.Routes()
	views := make([]RouteView, 0, len(routes))
	for _, task := range table.Tasks() {
		route := routes[task]
		views = append(views, RouteView{Task: task, Provider: route.Provider, Model: route.Model})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleResolveRoute(w http.ResponseWriter, r *http.Request) {
	task := chi.URLParam(r, "task")
	route := s.router.Table().Resolve(task)
	if route.IsZero() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no route for task %q", task))
		return
	}
	writeJSON(w, http.StatusOK, RouteView{Task: task, Provider: route.Provider, Model: route.Model})
}

func (s *Server) handleUpdateRoute(w http.ResponseWriter, r *http.Request) {
	task := chi.URLParam(r, "task")

	var req RouteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	route := routing.Route{Provider: req.Provider, Model: req.Model}
	if req.Route != "" {
		parsed, err := routing.ParseRoute(req.Route)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		route = parsed
	}

	if err := s.router.UpdateRoute(task, route.Provider, route.Model); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RouteView{Task: task, Provider: route.Provider, Model: route.Model})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	adapters := s.router.Adapters()
	views := make([]ProviderView, 0, len(adapters))
	for _, a := range adapters {
		views = append(views, viewOf(a))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAddProvider(w http.ResponseWriter, r *http.Request) {
	var entry config.ProviderEntry
	if err := decodeJSON(w, r, &entry); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if entry.Name == "" {
		writeError(w, http.StatusBadRequest, "provider name is required")
		return
	}

	if err := s.router.AddProvider(entry.ProviderConfig()); err != nil {
		var cfgErr *providers.ConfigError
		if errors.As(err, &cfgErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, a := range s.router.Adapters() {
		if a.Name() == entry.Name {
			writeJSON(w, http.StatusCreated, viewOf(a))
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "provider vanished after registration")
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	j := s.router.Journal()
	if j == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	limit := DefaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := j.List(r.Context(), limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, journal.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.router.Stats())
}

func viewOf(a providers.Adapter) ProviderView {
	cfg := a.Config()
	v := ProviderView{
		Name:       a.Name(),
		Type:       a.Type(),
		BaseURL:    cfg.BaseURL,
		Models:     a.GetModels(),
		Configured: a.ValidateConfig(),
	}
	if sr, ok := a.(providers.StatsReporter); ok {
		stats := sr.Stats()
		stats.LastError = redactor.RedactString(stats.LastError)
		v.Stats = &stats
	}
	return v
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
