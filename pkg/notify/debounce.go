package notify

import (
	"sync"
	"time"
)

// Debouncer suppresses duplicate external side effects: at most one fire per
// (kind, drop) within the window.
type Debouncer struct {
	mu        sync.Mutex
	lastFired map[string]time.Time
	now       func() time.Time
}

func NewDebouncer() *Debouncer {
	return &Debouncer{lastFired: make(map[string]time.Time), now: time.Now}
}

// NewDebouncerWithClock is used by tests to control time.
func NewDebouncerWithClock(now func() time.Time) *Debouncer {
	return &Debouncer{lastFired: make(map[string]time.Time), now: now}
}

// ShouldFire returns true and records the fire iff the window has elapsed
// since the last fire for (kind, drop), or there was none. A false return
// has no side effects.
func (d *Debouncer) ShouldFire(kind, dropID string, window time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := kind + "/" + dropID
	now := d.now()
	if last, ok := d.lastFired[key]; ok && now.Sub(last) < window {
		return false
	}
	d.lastFired[key] = now
	return true
}

// Sweep removes entries older than maxAge. Called by the janitor.
func (d *Debouncer) Sweep(maxAge time.Duration) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	removed := 0
	for k, t := range d.lastFired {
		if now.Sub(t) >= maxAge {
			delete(d.lastFired, k)
			removed++
		}
	}
	return removed
}
