package journal

import (
	"context"
	"sync"
)

// DefaultMaxEntries bounds the memory journal when no limit is given.
const DefaultMaxEntries = 1000

// Memory keeps the most recent entries in a ring buffer.
// Nothing survives the process.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
	closed  bool
}

// NewMemory creates a memory journal retaining at most maxEntries entries.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{entries: make([]Entry, maxEntries)}
}

// Record appends entry, evicting the oldest one when the buffer is full.
func (m *Memory) Record(_ context.Context, entry Entry) error {
	if err := entry.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.entries[m.next] = entry
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// List returns retained entries, newest first.
func (m *Memory) List(_ context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	n := m.next
	if m.full {
		n = len(m.entries)
	}
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.entries)) % len(m.entries)
		out = append(out, m.entries[idx])
	}
	return out, nil
}

// Close drops all entries.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	return nil
}
