package realtime

import (
	"sync"
	"time"
)

// RateLimiter is a sliding-window limiter.
type RateLimiter struct {
	mu     sync.Mutex
	events []time.Time
	limit  int
	window time.Duration
}

// NewRateLimiter returns nil when limit <= 0; a nil limiter allows everything.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		return nil
	}
	if window <= 0 {
		window = typingWindow
	}
	return &RateLimiter{
		events: make([]time.Time, 0, limit+1),
		limit:  limit,
		window: window,
	}
}

// Allow reports whether an event at time "now" should be permitted.
func (r *RateLimiter) Allow(now time.Time) bool {
	if r == nil {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cut := now.Add(-r.window)
	dst := r.events[:0]
	for _, t := range r.events {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	r.events = dst

	if len(r.events) >= r.limit {
		return false
	}
	r.events = append(r.events, now)
	return true
}

// keyedLimiter keeps one RateLimiter per key (conversation id).
type keyedLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	byKey  map[string]*RateLimiter
}

func newKeyedLimiter(limit int, window time.Duration) *keyedLimiter {
	if limit <= 0 {
		return nil
	}
	return &keyedLimiter{limit: limit, window: window, byKey: make(map[string]*RateLimiter)}
}

func (k *keyedLimiter) Allow(key string, now time.Time) bool {
	if k == nil {
		return true
	}
	k.mu.Lock()
	rl := k.byKey[key]
	if rl == nil {
		rl = NewRateLimiter(k.limit, k.window)
		k.byKey[key] = rl
	}
	k.mu.Unlock()
	return rl.Allow(now)
}
