package server

import (
	"sync"
	"time"
)

// RateLimiter is a sliding-window counter keyed by client. A key is
// allowed at most limit hits within any trailing window.
type RateLimiter struct {
	window time.Duration
	limit  int

	mu        sync.Mutex
	hits      map[string][]time.Time
	lastSweep time.Time
	// now is replaceable in tests.
	now func() time.Time
}

// NewRateLimiter creates a limiter allowing limit hits per window.
func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	return &RateLimiter{
		window: window,
		limit:  limit,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a hit for key and reports whether it is within budget.
// Expired hits are pruned on access, so idle keys cost nothing once
// their window passes.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)
	rl.sweepLocked(now, cutoff)

	kept := rl.hits[key][:0]
	for _, t := range rl.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.hits[key] = kept
		return false
	}

	rl.hits[key] = append(kept, now)
	return true
}

// sweepLocked drops keys whose hits have all expired, at most once per
// window, so the map does not grow with every key ever seen. Caller must
// hold mu.
func (rl *RateLimiter) sweepLocked(now, cutoff time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for key, hits := range rl.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(rl.hits, key)
		}
	}
}
