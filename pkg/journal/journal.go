package journal

import (
	"fmt"

	"mercator-hq/switchboard/pkg/config"
)

// Open creates the journal selected by cfg. A disabled journal yields nil.
func Open(cfg config.JournalConfig) (Journal, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemory(cfg.MaxEntries), nil
	case "sqlite":
		j, err := NewSQLite(SQLiteConfig{
			Path:       config.ExpandPath(cfg.Path),
			MaxEntries: cfg.MaxEntries,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite journal %q: %w", cfg.Path, err)
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Backend)
	}
}
