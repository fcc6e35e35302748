package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a per-key sliding window limiter used for inbound requests.
type Limiter struct {
	mu      sync.RWMutex
	limits  map[string][]time.Time
	window  time.Duration
	maxHits int
	clock   Clock
}

func NewLimiter(window time.Duration, maxHits int, opts ...Option) *Limiter {
	o := newOptions(opts)

	return &Limiter{
		limits:  make(map[string][]time.Time),
		window:  window,
		maxHits: maxHits,
		clock:   o.clock,
	}
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	windowStart := now.Add(-l.window)

	// Clean old entries
	if hits, exists := l.limits[key]; exists {
		valid := hits[:0]
		for _, hit := range hits {
			if hit.After(windowStart) {
				valid = append(valid, hit)
			}
		}
		if len(valid) == 0 {
			delete(l.limits, key)
		} else {
			l.limits[key] = valid
		}
	}

	if len(l.limits[key]) >= l.maxHits {
		return false
	}

	l.limits[key] = append(l.limits[key], now)
	return true
}

// Remaining reports how many hits key may still make in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	windowStart := l.clock.Now().Add(-l.window)
	used := 0
	for _, hit := range l.limits[key] {
		if hit.After(windowStart) {
			used++
		}
	}

	if used >= l.maxHits {
		return 0
	}
	return l.maxHits - used
}
