package notify

import (
	"testing"
	"time"
)

func TestDebounceWindow(t *testing.T) {
	base := time.Now()
	clock := base
	d := NewDebouncerWithClock(func() time.Time { return clock })

	if !d.ShouldFire("msg", "d1", time.Minute) {
		t.Fatalf("first fire should pass")
	}
	clock = base.Add(10 * time.Second)
	if d.ShouldFire("msg", "d1", time.Minute) {
		t.Fatalf("fire inside the window should be suppressed")
	}
	clock = base.Add(61 * time.Second)
	if !d.ShouldFire("msg", "d1", time.Minute) {
		t.Fatalf("fire after the window should pass")
	}
}

func TestDebounceKeysIndependent(t *testing.T) {
	d := NewDebouncer()
	if !d.ShouldFire("msg", "d1", time.Minute) {
		t.Fatalf("d1 should fire")
	}
	if !d.ShouldFire("msg", "d2", time.Minute) {
		t.Fatalf("d2 has its own window")
	}
	if !d.ShouldFire("img", "d1", time.Minute) {
		t.Fatalf("different kind has its own window")
	}
	if d.ShouldFire("msg", "d1", time.Minute) {
		t.Fatalf("repeat on same key should be suppressed")
	}
}

func TestSuppressedFireHasNoSideEffects(t *testing.T) {
	base := time.Now()
	clock := base
	d := NewDebouncerWithClock(func() time.Time { return clock })

	d.ShouldFire("msg", "d1", time.Minute)
	clock = base.Add(59 * time.Second)
	d.ShouldFire("msg", "d1", time.Minute) // suppressed; must not extend window
	clock = base.Add(61 * time.Second)
	if !d.ShouldFire("msg", "d1", time.Minute) {
		t.Fatalf("suppressed attempt must not have refreshed the window")
	}
}

func TestDebounceSweep(t *testing.T) {
	base := time.Now()
	clock := base
	d := NewDebouncerWithClock(func() time.Time { return clock })

	d.ShouldFire("msg", "stale", time.Minute)
	clock = base.Add(2 * time.Hour)
	d.ShouldFire("msg", "fresh", time.Minute)

	if got := d.Sweep(time.Hour); got != 1 {
		t.Fatalf("Sweep removed %d entries, want 1", got)
	}
}
