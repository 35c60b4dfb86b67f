package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps request timestamps per client in process memory.
// Timestamps older than the window are pruned on every call and by Sweep.
type MemoryLimiter struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	cfg  Config
	now  func() time.Time
}

func NewMemoryLimiter(cfg Config, now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		hits: make(map[string][]time.Time),
		cfg:  cfg,
		now:  now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(l.hits[key], now)
	if len(recent) >= l.cfg.MaxRequests {
		l.hits[key] = recent
		return false, nil
	}
	l.hits[key] = append(recent, now)
	return true, nil
}

// Sweep forgets clients with no request inside the window.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, ts := range l.hits {
		recent := l.prune(ts, now)
		if len(recent) == 0 {
			delete(l.hits, key)
			removed++
			continue
		}
		l.hits[key] = recent
	}
	return removed
}

func (l *MemoryLimiter) Name() string {
	return "rate_limit_windows"
}

// Clients is the number of tracked client identifiers.
func (l *MemoryLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

// prune filters in place; ts is ordered so the cut point is the first recent entry.
func (l *MemoryLimiter) prune(ts []time.Time, now time.Time) []time.Time {
	i := 0
	for i < len(ts) && now.Sub(ts[i]) >= l.cfg.Window {
		i++
	}
	return ts[i:]
}
