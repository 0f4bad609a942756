// Package config loads the routing configuration document.
//
// # Document
//
// The document is JSON (or YAML for .yaml/.yml files) with two core keys:
//
//	{
//	  "Providers": {
//	    "openai": {"name": "openai", "api_base_url": "https://api.openai.com/v1",
//	               "api_key": "sk-...", "models": ["gpt-3.5-turbo", "gpt-4"]},
//	    "ollama": {"name": "ollama", "api_base_url": "http://localhost:11434/api",
//	               "api_key": "", "models": ["llama3"]}
//	  },
//	  "Router": {
//	    "default": "openai,gpt-3.5-turbo",
//	    "background": "ollama,llama3"
//	  }
//	}
//
// Provider order in the document is kept; the first provider is the
// fallback for routes that name an unknown provider. Optional sections
// (Logging, Metrics, Tracing, Journal, Catalog, Server) configure the
// surrounding process.
//
// # Loading
//
// Load never leaves the caller without a configuration. A missing file
// yields the built-in defaults silently. A file that cannot be read or
// parsed yields the defaults together with a *ConfigError. In a readable
// file only the faulty entries are dropped (see Sanitize), and the error
// lists them:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    // already logged once; cfg is still usable
//	}
//
// Defaults returns a fresh copy of the built-in configuration on every call.
//
// # Environment Variable Overrides
//
//   - SWITCHBOARD_CONFIG selects the file when no path is given
//   - SWITCHBOARD_PROVIDERS_<NAME>_API_KEY, _BASE_URL, _TIMEOUT override a provider
//   - SWITCHBOARD_LOG_LEVEL overrides Logging.level
//
// # Hot Reload
//
// Watcher re-reads the file on change and hands every valid result to a
// callback, typically routing.Router.Reconfigure.
package config
