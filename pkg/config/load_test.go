package config

import (
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func noEnv(string) string { return "" }

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	loader := &Loader{Getenv: noEnv}
	cfg, err := loader.Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing file", err)
	}

	want := []string{"openai", "anthropic", "openrouter", "deepseek", "ollama", "gemini"}
	if got := cfg.Providers.Keys(); !slices.Equal(got, want) {
		t.Errorf("providers = %v, want %v", got, want)
	}
	if got := cfg.Router["think"]; got != "anthropic,claude-3-sonnet-20240229" {
		t.Errorf("think route = %q", got)
	}
	if got := cfg.Router["claudeCode"]; got != "anthropic,claude-3-opus-20240229" {
		t.Errorf("claudeCode route = %q", got)
	}
}

func TestLoad_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"Providers": {
			"zeta": {"name": "zeta", "type": "stub", "api_base_url": "", "api_key": "", "models": ["z1"]},
			"openai": {"name": "openai", "api_base_url": "https://api.openai.com/v1", "api_key": "sk-real", "models": ["gpt-4"], "timeout": "45s"},
			"ollama": {"api_base_url": "http://gpu:11434/api", "models": []}
		},
		"Router": {"default": "openai,gpt-4", "fast": "zeta"},
		"Logging": {"level": "debug", "format": "text"}
	}`)

	cfg, err := (&Loader{Getenv: noEnv}).Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Providers.Keys(); !slices.Equal(got, []string{"zeta", "openai", "ollama"}) {
		t.Errorf("document order not kept: %v", got)
	}

	openai, _ := cfg.Providers.Get("openai")
	if openai.Timeout.Std() != 45*time.Second || openai.Type != "openai" {
		t.Errorf("openai entry = %+v", openai)
	}

	ollama, _ := cfg.Providers.Get("ollama")
	if ollama.Name != "ollama" || ollama.Type != "ollama" || len(ollama.Models) == 0 || ollama.Models[0] != "llama3" {
		t.Errorf("ollama entry not defaulted: %+v", ollama)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("server defaults not applied: %+v", cfg.Server)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
Providers:
  anthropic:
    api_key: sk-ant
    timeout: 10s
  gemini:
    api_key: g-key
Router:
  default: gemini,gemini-1.5-flash
Journal:
  enabled: true
  backend: sqlite
`)

	cfg, err := (&Loader{Getenv: noEnv}).Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Providers.Keys(); !slices.Equal(got, []string{"anthropic", "gemini"}) {
		t.Errorf("providers = %v", got)
	}
	anthropic, _ := cfg.Providers.Get("anthropic")
	if anthropic.BaseURL != "https://api.anthropic.com/v1" || anthropic.Timeout.Std() != 10*time.Second {
		t.Errorf("anthropic entry = %+v", anthropic)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Backend != "sqlite" {
		t.Errorf("journal = %+v", cfg.Journal)
	}
}

func TestLoad_MalformedFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantOp  string
	}{
		{"bad json", "config.json", `{"Providers": {`, "parse"},
		{"providers not an object", "config.json", `{"Providers": []}`, "parse"},
		{"bad yaml", "config.yaml", "Providers: [unterminated", "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			cfg, err := (&Loader{Getenv: noEnv}).Load(path)
			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}
			if cfg.Providers.Len() != 6 {
				t.Errorf("expected defaults, got providers %v", cfg.Providers.Keys())
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cfgErr.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q (%v)", cfgErr.Op, tt.wantOp, err)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Error("error does not match ErrInvalidConfig")
			}
		})
	}
}

func TestLoad_DropsOnlyFaultyEntries(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantProviders []string
		wantRoutes    map[string]string
		wantField     string
		check         func(t *testing.T, cfg *Config)
	}{
		{
			name: "unsupported provider type",
			content: `{
				"Providers": {
					"mine": {"type": "stub", "models": ["m1"]},
					"odd": {"type": "bedrock", "api_base_url": "https://bedrock.example.com", "models": ["titan"]}
				},
				"Router": {"default": "mine,m1"}
			}`,
			wantProviders: []string{"mine"},
			wantRoutes:    map[string]string{"default": "mine,m1"},
			wantField:     "Providers.odd.type",
		},
		{
			name: "generic provider without models",
			content: `{
				"Providers": {
					"lmstudio": {"api_base_url": "http://localhost:1234/v1"},
					"local-stub": {}
				}
			}`,
			wantProviders: []string{"local-stub"},
			wantRoutes:    map[string]string{},
			wantField:     "Providers.lmstudio.models",
		},
		{
			name:          "empty route provider",
			content:       `{"Providers": {"local-stub": {}}, "Router": {"default": ",gpt-4", "think": "local-stub"}}`,
			wantProviders: []string{"local-stub"},
			wantRoutes:    map[string]string{"think": "local-stub"},
			wantField:     "Router.default",
		},
		{
			name:          "bad cron schedule",
			content:       `{"Providers": {"local-stub": {}}, "Catalog": {"enabled": true, "schedule": "every day", "concurrency": 2}}`,
			wantProviders: []string{"local-stub"},
			wantRoutes:    map[string]string{},
			wantField:     "Catalog.schedule",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Catalog.Schedule != DefaultCatalogSchedule || cfg.Catalog.Concurrency != DefaultCatalogConcurrency {
					t.Errorf("catalog section not reset: %+v", cfg.Catalog)
				}
			},
		},
		{
			name:          "bad log level",
			content:       `{"Providers": {"local-stub": {}}, "Logging": {"level": "loud", "format": "text"}}`,
			wantProviders: []string{"local-stub"},
			wantRoutes:    map[string]string{},
			wantField:     "Logging.level",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != DefaultLogLevel || cfg.Logging.Format != DefaultLogFormat {
					t.Errorf("logging section not reset: %+v", cfg.Logging)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.json", tt.content)

			cfg, err := (&Loader{Getenv: noEnv}).Load(path)
			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}
			if got := cfg.Providers.Keys(); !slices.Equal(got, tt.wantProviders) {
				t.Errorf("providers = %v, want %v", got, tt.wantProviders)
			}
			if !maps.Equal(cfg.Router, tt.wantRoutes) {
				t.Errorf("routes = %v, want %v", cfg.Router, tt.wantRoutes)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
			if err := Validate(cfg); err != nil {
				t.Errorf("loaded config does not validate: %v", err)
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Op != "validate" {
				t.Fatalf("expected validate *ConfigError, got %v", err)
			}
			var verr ValidationError
			if !errors.As(err, &verr) || len(verr.Errors) == 0 || verr.Errors[0].Field != tt.wantField {
				t.Errorf("reported faults = %v, want field %s", verr.Errors, tt.wantField)
			}
		})
	}
}

func TestLoadStrict_RejectsFaultyEntries(t *testing.T) {
	path := writeFile(t, "config.json", `{"Providers": {"mine": {"type": "stub"}, "odd": {"type": "bedrock"}}}`)

	cfg, err := (&Loader{Getenv: noEnv}).LoadStrict(path)
	if cfg != nil || !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadStrict() = %v, %v; want nil config and a ConfigError", cfg, err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	env := map[string]string{
		"SWITCHBOARD_PROVIDERS_OPENAI_API_KEY":  "sk-from-env",
		"SWITCHBOARD_PROVIDERS_OLLAMA_BASE_URL": "http://gpu-box:11434/api",
		"SWITCHBOARD_PROVIDERS_GEMINI_TIMEOUT":  "12s",
		"SWITCHBOARD_LOG_LEVEL":                 "DEBUG",
	}
	loader := &Loader{Getenv: func(k string) string { return env[k] }}

	cfg, err := loader.Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	openai, _ := cfg.Providers.Get("openai")
	if openai.APIKey != "sk-from-env" {
		t.Errorf("openai api key = %q", openai.APIKey)
	}
	ollama, _ := cfg.Providers.Get("ollama")
	if ollama.BaseURL != "http://gpu-box:11434/api" {
		t.Errorf("ollama base url = %q", ollama.BaseURL)
	}
	gemini, _ := cfg.Providers.Get("gemini")
	if gemini.Timeout.Std() != 12*time.Second {
		t.Errorf("gemini timeout = %s", gemini.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}

	// Overrides never leak into the shared defaults.
	if fresh, _ := Defaults().Providers.Get("openai"); fresh.APIKey != "sk-xxx" {
		t.Errorf("defaults mutated: %q", fresh.APIKey)
	}
}

func TestLoader_ResolvePath(t *testing.T) {
	loader := &Loader{Getenv: func(k string) string {
		if k == EnvConfigPath {
			return "/etc/switchboard.yaml"
		}
		return ""
	}}
	if got := loader.ResolvePath(""); got != "/etc/switchboard.yaml" {
		t.Errorf("ResolvePath(\"\") = %q", got)
	}
	if got := loader.ResolvePath("/tmp/x.json"); got != "/tmp/x.json" {
		t.Errorf("ResolvePath(explicit) = %q", got)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := (&Loader{Getenv: noEnv}).ResolvePath(""); got != filepath.Join(home, ".ccli", "config.json") {
		t.Errorf("ResolvePath default = %q", got)
	}
}

func TestLoader_InjectedDefaults(t *testing.T) {
	custom := &Config{Router: map[string]string{"default": "local-stub"}}
	custom.Providers.Set("local-stub", ProviderEntry{Models: []string{"canned"}})

	cfg, err := (&Loader{Defaults: custom, Getenv: noEnv}).Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	entry, ok := cfg.Providers.Get("local-stub")
	if !ok || entry.Type != "stub" {
		t.Errorf("injected defaults not used: %+v", cfg.Providers.Keys())
	}

	cfg.Router["default"] = "mutated"
	if custom.Router["default"] != "local-stub" {
		t.Error("Load handed out the injected value instead of a copy")
	}
}

func TestLoadStrict_MissingFile(t *testing.T) {
	_, err := (&Loader{Getenv: noEnv}).LoadStrict(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("LoadStrict() error = %v, want fs.ErrNotExist", err)
	}
}

func TestWriteFile_RoundTripKeepsOrder(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Router["review"] = "openrouter,anthropic/claude-3-sonnet"

			path := filepath.Join(t.TempDir(), "nested", name)
			if err := WriteFile(path, cfg); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0o600 {
				t.Errorf("permissions = %o, want 600", perm)
			}

			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !slices.Equal(got.Providers.Keys(), cfg.Providers.Keys()) {
				t.Errorf("order = %v, want %v", got.Providers.Keys(), cfg.Providers.Keys())
			}
			if got.Router["review"] != "openrouter,anthropic/claude-3-sonnet" {
				t.Errorf("Router = %v", got.Router)
			}
		})
	}
}
