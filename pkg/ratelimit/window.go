// Package ratelimit implements sliding-window admission control keyed by an
// opaque identity. Thresholds are parameters on every call, not global
// constants: read, write and react paths apply their own limits.
package ratelimit

import (
	"sync"
	"time"
)

type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func New() *Limiter {
	return &Limiter{windows: make(map[string][]time.Time), now: time.Now}
}

// NewWithClock is used by tests to control the window clock.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{windows: make(map[string][]time.Time), now: now}
}

// Allow prunes entries older than window for the identity and admits the
// call iff fewer than max remain. Admitted calls are recorded; denied calls
// leave the window untouched.
func (l *Limiter) Allow(identity string, max int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	kept := l.windows[identity][:0]
	for _, t := range l.windows[identity] {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	if len(kept) >= max {
		l.windows[identity] = kept
		return false
	}
	l.windows[identity] = append(kept, now)
	return true
}

// Reset drops the window for an identity (successful unlock clears the
// attempt counter).
func (l *Limiter) Reset(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, identity)
}

// Sweep removes identities whose entire window has expired. Called by the
// janitor; entries self-expire on next access regardless, this only bounds
// memory for identities that stopped calling.
func (l *Limiter) Sweep(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	removed := 0
	for id, ts := range l.windows {
		if len(ts) == 0 || now.Sub(ts[len(ts)-1]) >= maxAge {
			delete(l.windows, id)
			removed++
		}
	}
	return removed
}
