package routing

import (
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/switchboard/pkg/providers"
)

// Stats is a point-in-time view of router activity.
type Stats struct {
	TotalDispatches      int64            `json:"total_dispatches"`
	DispatchesByProvider map[string]int64 `json:"dispatches_by_provider"`
	DispatchesByTask     map[string]int64 `json:"dispatches_by_task"`
	Simulated            int64            `json:"simulated"`
	Fallbacks            int64            `json:"fallbacks"`
	NoProvider           int64            `json:"no_provider"`
	LastResetTime        time.Time        `json:"last_reset_time"`
}

// AtomicStats implements thread-safe router statistics using atomic operations.
type AtomicStats struct {
	total      atomic.Int64
	simulated  atomic.Int64
	fallbacks  atomic.Int64
	noProvider atomic.Int64

	perProvider sync.Map // map[string]*atomic.Int64
	perTask     sync.Map // map[string]*atomic.Int64

	mu            sync.RWMutex
	lastResetTime time.Time
}

// NewAtomicStats creates a new statistics tracker.
func NewAtomicStats() *AtomicStats {
	return &AtomicStats{lastResetTime: time.Now()}
}

// Record counts one dispatch.
func (s *AtomicStats) Record(task string, res providers.Result, fallback bool) {
	s.total.Add(1)
	increment(&s.perTask, task)
	if res.ProviderName != "" {
		increment(&s.perProvider, res.ProviderName)
	} else {
		s.noProvider.Add(1)
	}
	if res.Simulated {
		s.simulated.Add(1)
	}
	if fallback {
		s.fallbacks.Add(1)
	}
}

func increment(m *sync.Map, key string) {
	val, _ := m.LoadOrStore(key, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

func snapshot(m *sync.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Range(func(key, value any) bool {
		out[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return out
}

// Snapshot returns a point-in-time copy of the statistics.
func (s *AtomicStats) Snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		TotalDispatches:      s.total.Load(),
		DispatchesByProvider: snapshot(&s.perProvider),
		DispatchesByTask:     snapshot(&s.perTask),
		Simulated:            s.simulated.Load(),
		Fallbacks:            s.fallbacks.Load(),
		NoProvider:           s.noProvider.Load(),
		LastResetTime:        s.lastResetTime,
	}
}

// Reset resets all statistics to zero.
func (s *AtomicStats) Reset() {
	s.total.Store(0)
	s.simulated.Store(0)
	s.fallbacks.Store(0)
	s.noProvider.Store(0)
	s.perProvider.Clear()
	s.perTask.Clear()

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}
