package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/journal"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/providers/stub"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/telemetry/logging"
)

func newTestRouter(t *testing.T, opts ...routing.Option) *routing.Router {
	t.Helper()
	cfg := &config.Config{Router: map[string]string{
		"default": "alpha",
		"coding":  "beta,beta-coder",
	}}
	cfg.Providers.Set("alpha", config.ProviderEntry{Type: stub.Type, Models: []string{"alpha-model"}})
	cfg.Providers.Set("beta", config.ProviderEntry{Type: stub.Type, Models: []string{"beta-model", "beta-coder"}})
	config.ApplyDefaults(cfg)

	r, err := routing.New(cfg, append([]routing.Option{routing.WithLogger(logging.Discard())}, opts...)...)
	if err != nil {
		t.Fatalf("routing.New() error = %v", err)
	}
	return r
}

func newTestServer(t *testing.T, router Router, opts ...Option) *httptest.Server {
	t.Helper()
	s := New(config.ServerConfig{}, router, append([]Option{WithLogger(logging.Discard())}, opts...)...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestDispatch(t *testing.T) {
	ts := newTestServer(t, newTestRouter(t))

	tests := []struct {
		name     string
		body     string
		code     int
		provider string
		model    string
		text     string
	}{
		{"routed task", `{"task":"coding","prompt":"sort this"}`, http.StatusOK, "beta", "beta-coder", "stub reply: sort this"},
		{"unknown task uses default", `{"task":"poetry","prompt":"hi"}`, http.StatusOK, "alpha", "alpha-model", "stub reply: hi"},
		{"empty task uses default", `{"prompt":"hi"}`, http.StatusOK, "alpha", "alpha-model", "stub reply: hi"},
		{"with options", `{"task":"coding","prompt":"x","temperature":0.2,"max_tokens":10,"history":[{"role":"system","content":"terse"}]}`, http.StatusOK, "beta", "beta-coder", "stub reply: x"},
		{"malformed body", `{"task":`, http.StatusBadRequest, "", "", ""},
		{"unknown field", `{"task":"coding","promt":"x"}`, http.StatusBadRequest, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, http.MethodPost, ts.URL+"/v1/dispatch", tt.body)
			if resp.StatusCode != tt.code {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.code, data)
			}
			if tt.code != http.StatusOK {
				if e := decode[errorResponse](t, data); e.Error == "" {
					t.Error("error response without message")
				}
				return
			}
			res := decode[providers.Result](t, data)
			if res.ProviderName != tt.provider || res.ModelUsed != tt.model || res.Text != tt.text || res.Simulated {
				t.Errorf("result = %+v", res)
			}
			if len(res.Raw) == 0 {
				t.Error("raw payload missing")
			}
		})
	}
}

func TestDispatch_SimulatedIsStillOK(t *testing.T) {
	cfg := &config.Config{Router: map[string]string{"default": "openai,gpt-4"}}
	cfg.Providers.Set("openai", config.ProviderEntry{})
	config.ApplyDefaults(cfg)
	router, _ := routing.New(cfg, routing.WithLogger(logging.Discard()))
	ts := newTestServer(t, router)

	resp, data := do(t, http.MethodPost, ts.URL+"/v1/dispatch", `{"task":"default","prompt":"hi"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	res := decode[map[string]any](t, data)
	if res["simulated"] != true || res["provider"] != "openai" || res["model"] != "gpt-4" {
		t.Errorf("result = %v", res)
	}
	if !strings.Contains(res["response"].(string), "gpt-4") {
		t.Errorf("response = %v", res["response"])
	}
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t)
	ts := newTestServer(t, router)

	_, data := do(t, http.MethodGet, ts.URL+"/v1/routes", "")
	routes := decode[[]RouteView](t, data)
	if len(routes) != 2 || routes[0].Task != "coding" || routes[1].Task != "default" {
		t.Errorf("routes = %+v", routes)
	}

	resp, data := do(t, http.MethodPut, ts.URL+"/v1/routes/review", `{"route":"beta,beta-model"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", resp.StatusCode, data)
	}
	if got := router.Resolve("review"); got.Provider != "beta" || got.Model != "beta-model" {
		t.Errorf("route not applied: %v", got)
	}

	resp, _ = do(t, http.MethodPut, ts.URL+"/v1/routes/summary", `{"provider":"alpha"}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("PUT with provider only status = %d", resp.StatusCode)
	}

	for _, body := range []string{`{"route":",gpt-4"}`, `{}`} {
		if resp, _ := do(t, http.MethodPut, ts.URL+"/v1/routes/bad", body); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("PUT %s status = %d, want 400", body, resp.StatusCode)
		}
	}

	_, data = do(t, http.MethodGet, ts.URL+"/v1/routes/anything-else", "")
	if got := decode[RouteView](t, data); got.Provider != "alpha" || got.Task != "anything-else" {
		t.Errorf("resolve = %+v", got)
	}
}

func TestProviders(t *testing.T) {
	ts := newTestServer(t, newTestRouter(t))

	resp, data := do(t, http.MethodPost, ts.URL+"/v1/providers",
		`{"name":"deepseek","api_key":"sk-very-secret-key","models":["deepseek-chat"]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d: %s", resp.StatusCode, data)
	}
	added := decode[ProviderView](t, data)
	if added.Type != "deepseek" || !added.Configured || added.BaseURL == "" {
		t.Errorf("added = %+v", added)
	}

	_, data = do(t, http.MethodGet, ts.URL+"/v1/providers", "")
	if strings.Contains(string(data), "sk-very-secret-key") {
		t.Fatalf("provider listing leaks the credential: %s", data)
	}
	list := decode[[]ProviderView](t, data)
	if len(list) != 3 || list[0].Name != "alpha" || list[2].Name != "deepseek" {
		t.Errorf("providers = %+v", list)
	}
	if list[0].Stats == nil {
		t.Error("stub provider stats missing")
	}

	tests := []struct {
		name string
		body string
	}{
		{"no name", `{"type":"stub","models":["m"]}`},
		{"unsupported type", `{"name":"x","type":"carrier-pigeon","models":["m"]}`},
		{"malformed", `[`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp, data := do(t, http.MethodPost, ts.URL+"/v1/providers", tt.body); resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", resp.StatusCode, data)
			}
		})
	}
}

func TestJournal(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, newTestRouter(t))
		if resp, _ := do(t, http.MethodGet, ts.URL+"/v1/journal", ""); resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		router := newTestRouter(t, routing.WithJournal(journal.NewMemory(10)))
		ts := newTestServer(t, router)

		for _, task := range []string{"coding", "default", "coding"} {
			router.Dispatch(context.Background(), task, "x")
		}

		_, data := do(t, http.MethodGet, ts.URL+"/v1/journal?limit=2", "")
		entries := decode[[]journal.Entry](t, data)
		if len(entries) != 2 || entries[0].Task != "coding" || entries[1].Task != "default" {
			t.Errorf("entries = %+v", entries)
		}

		if resp, _ := do(t, http.MethodGet, ts.URL+"/v1/journal?limit=many", ""); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("bad limit status = %d", resp.StatusCode)
		}
	})
}

func TestStats(t *testing.T) {
	router := newTestRouter(t)
	ts := newTestServer(t, router)
	router.Dispatch(context.Background(), "coding", "x")

	_, data := do(t, http.MethodGet, ts.URL+"/v1/stats", "")
	if got := decode[routing.Stats](t, data); got.TotalDispatches != 1 {
		t.Errorf("stats = %+v", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "switchboard_up 1\n")
	})
	ts := newTestServer(t, newTestRouter(t), WithMetricsHandler("/metrics", metrics), WithVersion("1.0.0", "abc"))

	tests := []struct {
		path string
		code int
		want string
	}{
		{"/healthz", http.StatusOK, `"ok"`},
		{"/readyz", http.StatusOK, `"ready"`},
		{"/version", http.StatusOK, `"1.0.0"`},
		{"/metrics", http.StatusOK, "switchboard_up 1"},
		{"/nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, data := do(t, http.MethodGet, ts.URL+tt.path, "")
			if resp.StatusCode != tt.code {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.code)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("body = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestReadiness_NoProviders(t *testing.T) {
	router, _ := routing.New(&config.Config{}, routing.WithLogger(logging.Discard()))
	ts := newTestServer(t, router)

	resp, data := do(t, http.MethodGet, ts.URL+"/readyz", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503: %s", resp.StatusCode, data)
	}
	if !strings.Contains(string(data), "no providers registered") {
		t.Errorf("body = %s", data)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := New(config.ServerConfig{ShutdownTimeout: config.Duration(time.Second)}, newTestRouter(t),
		WithLogger(logging.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	url := "http://" + ln.Addr().String() + "/healthz"
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never answered: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
