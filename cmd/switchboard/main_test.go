package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providers"
)

const stubConfig = `{
  "Providers": {
    "local": {"type": "stub", "models": ["canned", "canned-large"]},
    "openai": {"api_key": "sk-xxx", "models": ["gpt-3.5-turbo", "gpt-4"]}
  },
  "Router": {
    "default": "local,canned",
    "think": "openai,gpt-4"
  }
}`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI with no environment overrides.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := buildRootCmd(&globalOptions{getenv: func(string) string { return "" }})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "Switchboard "+Version) || !strings.Contains(out, "Go Version:") {
		t.Errorf("output = %q", out)
	}
}

func TestDispatch(t *testing.T) {
	path := writeConfig(t, "config.json", stubConfig)

	t.Run("text", func(t *testing.T) {
		out, stderr, err := run(t, "-c", path, "dispatch", "default", "what", "is", "2+2?")
		if err != nil {
			t.Fatalf("dispatch error = %v (%s)", err, stderr)
		}
		if out != "stub reply: what is 2+2?\n" {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("simulated without credentials", func(t *testing.T) {
		out, stderr, err := run(t, "-c", path, "dispatch", "think", "hello")
		if err != nil {
			t.Fatalf("dispatch error = %v", err)
		}
		if !strings.Contains(out, "gpt-4") {
			t.Errorf("simulated text does not name the model: %q", out)
		}
		if !strings.Contains(stderr, "simulated reply (not_configured)") {
			t.Errorf("stderr = %q", stderr)
		}
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := run(t, "-c", path, "-o", "json", "dispatch", "unknown-task", "ping")
		if err != nil {
			t.Fatalf("dispatch error = %v", err)
		}
		var res providers.Result
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("invalid json %q: %v", out, err)
		}
		if res.ProviderName != "local" || res.ModelUsed != "canned" || res.Simulated {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("raw", func(t *testing.T) {
		out, _, err := run(t, "-c", path, "dispatch", "--raw", "default", "ping")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, `"object":"chat.completion"`) {
			t.Errorf("raw output = %q", out)
		}
	})

	t.Run("missing prompt", func(t *testing.T) {
		if _, _, err := run(t, "-c", path, "dispatch", "default"); err == nil {
			t.Error("dispatch without a prompt succeeded")
		}
	})
}

func TestDispatch_MissingConfigUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")

	out, _, err := run(t, "-c", path, "dispatch", "think", "hi")
	if err != nil {
		t.Fatalf("dispatch error = %v", err)
	}
	if !strings.Contains(out, "claude-3-sonnet-20240229") {
		t.Errorf("output = %q", out)
	}
}

func TestDispatch_MalformedConfigWarns(t *testing.T) {
	path := writeConfig(t, "config.json", `{"Providers": [}`)

	out, stderr, err := run(t, "-c", path, "dispatch", "coding", "hi")
	if err != nil {
		t.Fatalf("dispatch error = %v", err)
	}
	if n := strings.Count(stderr, "using built-in defaults"); n != 1 {
		t.Errorf("malformed file reported %d times, want once: %q", n, stderr)
	}
	if !strings.Contains(out, "deepseek-coder") {
		t.Errorf("output = %q", out)
	}
}

func TestDispatch_UnsupportedProviderKeepsRest(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "Providers": {
    "local": {"type": "stub", "models": ["canned"]},
    "odd": {"type": "bedrock", "api_base_url": "https://bedrock.example.com", "models": ["titan"]}
  },
  "Router": {"default": "local,canned"}
}`)

	out, stderr, err := run(t, "-c", path, "dispatch", "default", "hi")
	if err != nil {
		t.Fatalf("dispatch error = %v", err)
	}
	if out != "stub reply: hi\n" {
		t.Errorf("output = %q", out)
	}
	if n := strings.Count(stderr, "configuration entries ignored"); n != 1 {
		t.Errorf("ignored entries reported %d times, want once: %q", n, stderr)
	}
	if !strings.Contains(stderr, "bedrock") {
		t.Errorf("stderr does not name the dropped type: %q", stderr)
	}
	if strings.Contains(stderr, "using built-in defaults") {
		t.Errorf("whole file replaced by defaults: %q", stderr)
	}
}

func TestDispatch_Journal(t *testing.T) {
	dir := t.TempDir()
	cfg := `{
  "Providers": {"local": {"type": "stub", "models": ["canned"]}},
  "Router": {"default": "local"},
  "Journal": {"enabled": true, "backend": "sqlite", "path": "` + filepath.ToSlash(filepath.Join(dir, "journal.db")) + `"}
}`
	path := writeConfig(t, "config.json", cfg)

	for _, task := range []string{"first", "second"} {
		if _, stderr, err := run(t, "-c", path, "dispatch", task, "hi"); err != nil {
			t.Fatalf("dispatch error = %v (%s)", err, stderr)
		}
	}

	out, _, err := run(t, "-c", path, "-o", "json", "journal")
	if err != nil {
		t.Fatalf("journal error = %v", err)
	}
	var entries []struct {
		Task     string `json:"task"`
		Provider string `json:"provider"`
	}
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if len(entries) != 2 || entries[0].Task != "second" || entries[1].Provider != "local" {
		t.Errorf("entries = %+v", entries)
	}

	out, _, err = run(t, "-c", path, "journal", "-n", "1")
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 || !strings.HasPrefix(lines[0], "TIME") {
		t.Errorf("table = %q", out)
	}
}

func TestJournal_RequiresSQLite(t *testing.T) {
	path := writeConfig(t, "config.json", stubConfig)
	_, _, err := run(t, "-c", path, "journal")
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("journal error = %v, exit code %d", err, cli.ExitCode(err))
	}
}

func TestRoutes(t *testing.T) {
	path := writeConfig(t, "config.json", stubConfig)

	out, _, err := run(t, "-c", path, "routes")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "TASK") || !strings.HasPrefix(lines[1], "default") || !strings.Contains(lines[2], "gpt-4") {
		t.Errorf("routes = %q", out)
	}

	out, _, err = run(t, "-c", path, "routes", "resolve", "poetry")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "poetry") || !strings.Contains(out, "local") {
		t.Errorf("resolve = %q", out)
	}
}

func TestRoutesSet(t *testing.T) {
	path := writeConfig(t, "config.json", stubConfig)

	out, _, err := run(t, "-c", path, "routes", "set", "review", "local,canned-large")
	if err != nil {
		t.Fatalf("routes set error = %v", err)
	}
	if !strings.Contains(out, "saved 3 routes") {
		t.Errorf("output = %q", out)
	}

	cfg, err := config.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Router["review"] != "local,canned-large" {
		t.Errorf("Router = %v", cfg.Router)
	}
	if keys := cfg.Providers.Keys(); len(keys) != 2 || keys[0] != "local" {
		t.Errorf("provider order lost: %v", keys)
	}

	out, _, err = run(t, "-c", path, "dispatch", "review", "x")
	if err != nil {
		t.Fatal(err)
	}
	if out != "stub reply: x\n" {
		t.Errorf("dispatch after set = %q", out)
	}

	if _, _, err := run(t, "-c", path, "routes", "set", "review", "--delete"); err != nil {
		t.Fatalf("delete error = %v", err)
	}
	if cfg, _ := config.ReadFile(path); cfg.Router["review"] != "" {
		t.Error("route not deleted")
	}

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"malformed route", []string{"routes", "set", "review", ",gpt-4"}, cli.ExitUsage},
		{"route and delete", []string{"routes", "set", "review", "local", "--delete"}, cli.ExitUsage},
		{"neither", []string{"routes", "set", "review"}, cli.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, append([]string{"-c", path}, tt.args...)...)
			if got := cli.ExitCode(err); got != tt.code {
				t.Errorf("exit code = %d (%v), want %d", got, err, tt.code)
			}
		})
	}
}

func TestRoutesSet_CreatesFileFromDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new", "config.yaml")

	if _, _, err := run(t, "-c", path, "routes", "set", "think", "anthropic,claude-3-opus-20240229"); err != nil {
		t.Fatalf("routes set error = %v", err)
	}
	cfg, err := config.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Providers.Len() != 6 || cfg.Router["think"] != "anthropic,claude-3-opus-20240229" || cfg.Router["coding"] != "deepseek,deepseek-coder" {
		t.Errorf("config = %+v", cfg.Router)
	}
}

func TestProviders(t *testing.T) {
	path := writeConfig(t, "config.json", strings.Replace(stubConfig, `"sk-xxx"`, `"sk-live-secret-123"`, 1))

	out, _, err := run(t, "-c", path, "providers")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "sk-live-secret-123") {
		t.Fatalf("listing leaks the credential: %s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "local") || !strings.HasPrefix(lines[2], "openai") {
		t.Errorf("providers = %q", out)
	}

	out, _, err = run(t, "-c", path, "-o", "json", "providers")
	if err != nil {
		t.Fatal(err)
	}
	var views []providerView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatal(err)
	}
	if !views[1].Configured || views[1].Type != "openai" {
		t.Errorf("openai view = %+v", views[1])
	}
}

func TestProvidersAdd(t *testing.T) {
	path := writeConfig(t, "config.json", stubConfig)

	out, _, err := run(t, "-c", path, "providers", "add", "deepseek")
	if err != nil {
		t.Fatalf("providers add error = %v", err)
	}
	if !strings.Contains(out, "not configured") {
		t.Errorf("output = %q", out)
	}

	cfg, err := config.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := cfg.Providers.Get("deepseek")
	if !ok || entry.Type != "deepseek" || entry.BaseURL == "" || len(entry.Models) == 0 {
		t.Errorf("saved entry = %+v", entry)
	}
	if keys := cfg.Providers.Keys(); keys[len(keys)-1] != "deepseek" {
		t.Errorf("new provider not appended: %v", keys)
	}

	_, _, err = run(t, "-c", path, "providers", "add", "pigeon", "--type", "carrier-pigeon")
	if cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("unsupported type error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    int
		stderr  string
	}{
		{"valid", "config.json", stubConfig, cli.ExitOK, ""},
		{"valid yaml", "config.yaml", "Providers:\n  local:\n    type: stub\n    models: [canned]\nRouter:\n  default: local,canned\n", cli.ExitOK, ""},
		{"unknown provider warns", "config.json", `{"Providers":{"local":{"type":"stub","models":["m"]}},"Router":{"default":"ghost,m"}}`, cli.ExitOK, "unknown provider"},
		{"malformed", "config.json", `{"Router": "nope"}`, cli.ExitConfig, ""},
		{"bad route", "config.json", `{"Router": {"default": ",gpt-4"}}`, cli.ExitConfig, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			out, stderr, err := run(t, "-c", path, "validate")
			if got := cli.ExitCode(err); got != tt.code {
				t.Fatalf("exit code = %d (%v), want %d", got, err, tt.code)
			}
			if tt.code == cli.ExitOK && !strings.Contains(out, "valid") {
				t.Errorf("output = %q", out)
			}
			if !strings.Contains(stderr, tt.stderr) {
				t.Errorf("stderr = %q, want %q", stderr, tt.stderr)
			}
		})
	}

	_, _, err := run(t, "-c", filepath.Join(t.TempDir(), "absent.json"), "validate")
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("missing file error = %v", err)
	}
}

func TestServe_DryRun(t *testing.T) {
	path := writeConfig(t, "config.json", stubConfig)

	out, _, err := run(t, "-c", path, "serve", "--dry-run", "--log-level", "error")
	if err != nil {
		t.Fatalf("serve --dry-run error = %v", err)
	}
	if !strings.Contains(out, "dry run") {
		t.Errorf("output = %q", out)
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	path := writeConfig(t, "config.json", stubConfig)
	_, _, err := run(t, "-c", path, "-o", "xml", "routes")
	if cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("error = %v", err)
	}
}
