package journal

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by a journal after Close.
var ErrClosed = errors.New("journal is closed")

// Journal records one entry per dispatch.
// Implementations must be safe for concurrent use.
type Journal interface {
	// Record appends an entry. Entries without an ID or Time are rejected.
	Record(ctx context.Context, entry Entry) error

	// List returns up to limit entries, newest first. A limit of zero or
	// less returns everything retained.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Close releases the backend. The journal must not be used afterwards.
	Close() error
}

// Entry describes a single dispatch.
type Entry struct {
	ID        string        `json:"id"`
	Task      string        `json:"task"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Simulated bool          `json:"simulated"`
	Fallback  bool          `json:"fallback,omitempty"`
	Reason    string        `json:"reason"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency"`
	Time      time.Time     `json:"time"`
}

func (e Entry) validate() error {
	if e.ID == "" {
		return errors.New("entry id cannot be empty")
	}
	if e.Time.IsZero() {
		return errors.New("entry time cannot be zero")
	}
	return nil
}
