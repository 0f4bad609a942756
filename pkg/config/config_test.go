package config

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaults_IndependentCopies(t *testing.T) {
	a := Defaults()
	b := Defaults()

	entry, _ := a.Providers.Get("openai")
	entry.Models[0] = "mutated"
	entry.APIKey = "sk-real"
	a.Providers.Set("openai", entry)
	a.Router["default"] = "mutated"
	a.Providers.Delete("gemini")

	got, _ := b.Providers.Get("openai")
	if got.Models[0] != "gpt-3.5-turbo" || got.APIKey != "sk-xxx" {
		t.Errorf("second copy affected: %+v", got)
	}
	if b.Router["default"] != "openai,gpt-3.5-turbo" {
		t.Errorf("router affected: %q", b.Router["default"])
	}
	if b.Providers.Len() != 6 {
		t.Errorf("providers = %v", b.Providers.Keys())
	}
}

func TestDefaults_Valid(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("built-in defaults do not validate: %v", err)
	}
}

func TestDefaults_NoCredentials(t *testing.T) {
	for _, pc := range Defaults().ProviderConfigs() {
		if pc.HasCredential() {
			t.Errorf("default provider %q carries a usable credential", pc.Name)
		}
	}
}

func TestSplitRoute(t *testing.T) {
	tests := []struct {
		route    string
		provider string
		model    string
		ok       bool
	}{
		{"openai,gpt-4", "openai", "gpt-4", true},
		{"ollama", "ollama", "", true},
		{"openrouter,anthropic/claude-3-sonnet", "openrouter", "anthropic/claude-3-sonnet", true},
		{"custom,model,with,commas", "custom", "model,with,commas", true},
		{" deepseek , deepseek-coder ", "deepseek", "deepseek-coder", true},
		{"openai,", "openai", "", true},
		{",gpt-4", "", "gpt-4", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			provider, model, ok := SplitRoute(tt.route)
			if provider != tt.provider || model != tt.model || ok != tt.ok {
				t.Errorf("SplitRoute(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.route, provider, model, ok, tt.provider, tt.model, tt.ok)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name: "unsupported type",
			mutate: func(c *Config) {
				c.Providers.Set("weird", ProviderEntry{Type: "carrier-pigeon", BaseURL: "http://x", Models: []string{"m"}})
			},
			wantField: "Providers.weird.type",
		},
		{
			name: "relative url",
			mutate: func(c *Config) {
				e, _ := c.Providers.Get("openai")
				e.BaseURL = "api.openai.com/v1"
				c.Providers.Set("openai", e)
			},
			wantField: "Providers.openai.api_base_url",
		},
		{
			name: "negative timeout",
			mutate: func(c *Config) {
				e, _ := c.Providers.Get("ollama")
				e.Timeout = Duration(-time.Second)
				c.Providers.Set("ollama", e)
			},
			wantField: "Providers.ollama.timeout",
		},
		{
			name:      "empty route",
			mutate:    func(c *Config) { c.Router["think"] = "" },
			wantField: "Router.think",
		},
		{
			name:      "log level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantField: "Logging.level",
		},
		{
			name:      "sample ratio",
			mutate:    func(c *Config) { c.Tracing.SampleRatio = 1.5 },
			wantField: "Tracing.sample_ratio",
		},
		{
			name:      "journal backend",
			mutate:    func(c *Config) { c.Journal.Backend = "postgres" },
			wantField: "Journal.backend",
		},
		{
			name:      "cron schedule",
			mutate:    func(c *Config) { c.Catalog.Schedule = "61 * * * *" },
			wantField: "Catalog.schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			fields := make([]string, 0, len(verr.Errors))
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
			}
			if !slices.Contains(fields, tt.wantField) {
				t.Errorf("fields = %v, want %q", fields, tt.wantField)
			}
		})
	}
}

func TestValidate_RouteToUnknownProviderAllowed(t *testing.T) {
	cfg := Defaults()
	cfg.Router["review"] = "nonexistent,some-model"
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestProviderSet_SetKeepsPosition(t *testing.T) {
	var s ProviderSet
	s.Set("a", ProviderEntry{APIKey: "1"})
	s.Set("b", ProviderEntry{})
	s.Set("c", ProviderEntry{})
	s.Set("a", ProviderEntry{APIKey: "2"})

	if got := s.Keys(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Keys() = %v", got)
	}
	if e, _ := s.Get("a"); e.APIKey != "2" {
		t.Errorf("replacement lost: %+v", e)
	}

	s.Delete("b")
	if got := s.Keys(); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("Keys() after delete = %v", got)
	}
	if _, ok := s.Get("b"); ok {
		t.Error("deleted entry still present")
	}
}

func TestProviderSet_JSONOrder(t *testing.T) {
	doc := `{"z":{"models":["1"]},"m":{"models":["2"]},"a":{"models":["3"]}}`

	var s ProviderSet
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := s.Keys(); !slices.Equal(got, []string{"z", "m", "a"}) {
		t.Fatalf("Keys() = %v", got)
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if zi, ai := strings.Index(string(out), `"z"`), strings.Index(string(out), `"a"`); zi > ai {
		t.Errorf("encoded order lost: %s", out)
	}
}

func TestProviderSet_YAMLOrder(t *testing.T) {
	doc := "zeta:\n  models: [z]\nalpha:\n  models: [a]\n"

	var s ProviderSet
	if err := yaml.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := s.Keys(); !slices.Equal(got, []string{"zeta", "alpha"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestDuration_Decoding(t *testing.T) {
	tests := []struct {
		name string
		json string
		want time.Duration
	}{
		{"string", `"1m30s"`, 90 * time.Second},
		{"seconds", `45`, 45 * time.Second},
		{"fractional seconds", `0.5`, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			if err := json.Unmarshal([]byte(tt.json), &d); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if d.Std() != tt.want {
				t.Errorf("got %s, want %s", d, tt.want)
			}
		})
	}

	var d Duration
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Error("expected an error for an invalid duration")
	}
}

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		"openai":     "SWITCHBOARD_PROVIDERS_OPENAI_",
		"local-stub": "SWITCHBOARD_PROVIDERS_LOCAL_STUB_",
		"my.vllm":    "SWITCHBOARD_PROVIDERS_MY_VLLM_",
	}
	for in, want := range tests {
		if got := EnvName(in); got != want {
			t.Errorf("EnvName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfig_StringHidesKeys(t *testing.T) {
	cfg := Defaults()
	e, _ := cfg.Providers.Get("openai")
	e.APIKey = "sk-live-secret"
	cfg.Providers.Set("openai", e)

	if s := cfg.String(); strings.Contains(s, "sk-live-secret") {
		t.Errorf("String() leaks the key: %s", s)
	}
}
