package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by the loader.
const (
	EnvConfigPath = "SWITCHBOARD_CONFIG"
	EnvLogLevel   = "SWITCHBOARD_LOG_LEVEL"
	EnvPrefix     = "SWITCHBOARD_PROVIDERS_"
)

// Loader reads configuration documents. The zero value is ready to use.
type Loader struct {
	// Defaults is returned, as a copy, when the file is absent or unusable.
	// Nil means the built-in defaults.
	Defaults *Config

	// Getenv looks up environment overrides. Nil means os.Getenv.
	Getenv func(string) string

	// Logger receives the single diagnostic for an unusable file.
	// Nil means slog.Default().
	Logger *slog.Logger
}

// Load reads path with a Loader using the built-in defaults.
func Load(path string) (*Config, error) {
	return (&Loader{}).Load(path)
}

// Load returns a usable configuration in every case.
//
// An empty path resolves through SWITCHBOARD_CONFIG and then DefaultPath. An
// absent file yields the defaults and a nil error. An unreadable or malformed
// file yields the defaults and a *ConfigError. A well-formed file with faulty
// entries yields the file without those entries (see LoadFile). Either
// problem is logged once here; callers may treat the error as a warning.
func (l *Loader) Load(path string) (*Config, error) {
	path = l.ResolvePath(path)

	cfg, err := l.LoadFile(path)
	switch {
	case err == nil:
		return cfg, nil

	case cfg != nil:
		l.logger().Warn("configuration entries ignored",
			"path", path,
			"error", err,
		)
		return cfg, err

	case errors.Is(err, fs.ErrNotExist):
		l.logger().Info("configuration file not found, using built-in defaults", "path", path)
		return l.fallback(), nil
	}

	l.logger().Error("configuration file unusable, using built-in defaults",
		"path", path,
		"error", err,
	)
	return l.fallback(), err
}

// LoadFile reads path, applies defaults and environment overrides, and drops
// whatever Validate would reject (see Sanitize).
//
// A file that cannot be read or parsed returns a nil config. Otherwise the
// config is usable; the error is non-nil, with Op "validate", when entries
// were dropped or sections reset.
func (l *Loader) LoadFile(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	l.applyEnvOverrides(cfg)

	if faults := Sanitize(cfg); len(faults) > 0 {
		return cfg, &ConfigError{Path: path, Op: "validate", Err: ValidationError{Errors: faults}}
	}
	return cfg, nil
}

// LoadStrict reads, defaults, overrides and validates path. Unlike Load it
// drops nothing; any failure is returned as a *ConfigError.
func (l *Loader) LoadStrict(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	l.applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, &ConfigError{Path: path, Op: "validate", Err: err}
	}
	return cfg, nil
}

// ResolvePath applies the SWITCHBOARD_CONFIG and DefaultPath fallbacks and
// expands a leading "~".
func (l *Loader) ResolvePath(path string) string {
	if path == "" {
		path = l.getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath
	}
	return ExpandPath(path)
}

// ReadFile parses a configuration document without applying defaults,
// environment overrides or validation. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Op: "read", Err: err}
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Op: "parse", Err: err}
	}
	return &cfg, nil
}

// WriteFile writes cfg to path in the format implied by its extension. The
// file is replaced atomically and created with owner-only permissions since
// it may hold credentials.
func WriteFile(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return &ConfigError{Path: path, Op: "write", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return &ConfigError{Path: path, Op: "write", Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*")
	if err != nil {
		return &ConfigError{Path: path, Op: "write", Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &ConfigError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return &ConfigError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ConfigError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &ConfigError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// EnvName returns the environment variable prefix for a provider name:
// SWITCHBOARD_PROVIDERS_<NAME>_ with non-alphanumerics replaced by '_'.
func EnvName(provider string) string {
	var sb strings.Builder
	sb.WriteString(EnvPrefix)
	for _, r := range strings.ToUpper(provider) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	sb.WriteByte('_')
	return sb.String()
}

// applyEnvOverrides applies SWITCHBOARD_PROVIDERS_<NAME>_{API_KEY,BASE_URL,TIMEOUT}
// to every configured provider and SWITCHBOARD_LOG_LEVEL to the logger.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	for _, key := range cfg.Providers.Keys() {
		entry, _ := cfg.Providers.Get(key)
		prefix := EnvName(key)

		if val := l.getenv(prefix + "API_KEY"); val != "" {
			entry.APIKey = val
		}
		if val := l.getenv(prefix + "BASE_URL"); val != "" {
			entry.BaseURL = val
		}
		if val := l.getenv(prefix + "TIMEOUT"); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				entry.Timeout = Duration(d)
			} else {
				l.logger().Warn("ignoring invalid timeout override", "variable", prefix+"TIMEOUT", "value", val)
			}
		}
		cfg.Providers.Set(key, entry)
	}

	if val := l.getenv(EnvLogLevel); val != "" {
		cfg.Logging.Level = strings.ToLower(val)
	}
}

func (l *Loader) fallback() *Config {
	cfg := l.defaults()
	l.applyEnvOverrides(cfg)
	return cfg
}

func (l *Loader) defaults() *Config {
	if l.Defaults != nil {
		cfg := l.Defaults.Clone()
		ApplyDefaults(cfg)
		return cfg
	}
	return Defaults()
}

func (l *Loader) getenv(key string) string {
	if l.Getenv != nil {
		return l.Getenv(key)
	}
	return os.Getenv(key)
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default().With("component", "config")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// String summarizes the configuration for logs without credentials.
func (c *Config) String() string {
	return fmt.Sprintf("Config{providers=%v routes=%d}", c.Providers.Keys(), len(c.Router))
}
