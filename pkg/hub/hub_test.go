package hub

import (
	"errors"
	"sync"
	"testing"

	"msgdrop/pkg/models"
)

// fakePeer records events and can be flipped to fail sends.
type fakePeer struct {
	mu     sync.Mutex
	events []models.Event
	broken bool
}

func (p *fakePeer) Send(ev models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.broken {
		return errors.New("send failed")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePeer) byType(typ string) []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Event
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestAttachAnnouncesToOthersOnly(t *testing.T) {
	h := New()
	first := &fakePeer{}
	h.Attach("d1", first, "alice")

	if got := first.byType(models.EventPresence); len(got) != 0 {
		t.Fatalf("newcomer saw %d presence events, want 0", len(got))
	}
	if got := first.byType(models.EventRoster); len(got) != 1 {
		t.Fatalf("newcomer got %d roster events, want 1", len(got))
	}

	second := &fakePeer{}
	h.Attach("d1", second, "bob")

	joins := first.byType(models.EventPresence)
	if len(joins) != 1 || joins[0].User != "bob" || joins[0].Online != 2 {
		t.Fatalf("existing member join events = %+v", joins)
	}
	if got := second.byType(models.EventPresence); len(got) != 0 {
		t.Fatalf("newcomer must not see its own join")
	}
	roster := second.byType(models.EventRoster)
	if len(roster) != 1 || roster[0].Online != 2 {
		t.Fatalf("roster = %+v", roster)
	}
}

func TestDetachAnnouncesLeave(t *testing.T) {
	h := New()
	a, b := &fakePeer{}, &fakePeer{}
	h.Attach("d1", a, "alice")
	h.Attach("d1", b, "bob")

	h.Detach("d1", b)
	leaves := a.byType(models.EventPresence)
	// one join (bob) then one leave (bob)
	if len(leaves) != 2 || leaves[1].User != "bob" || leaves[1].Online != 1 {
		t.Fatalf("presence events = %+v", leaves)
	}
	if h.Online("d1") != 1 {
		t.Fatalf("online = %d, want 1", h.Online("d1"))
	}

	// second detach is a no-op
	h.Detach("d1", b)
	if got := a.byType(models.EventPresence); len(got) != 2 {
		t.Fatalf("duplicate detach produced extra events")
	}
}

func TestBroadcastAndExclude(t *testing.T) {
	h := New()
	a, b, c := &fakePeer{}, &fakePeer{}, &fakePeer{}
	h.Attach("d1", a, "alice")
	h.Attach("d1", b, "bob")
	h.Attach("d1", c, "carol")

	h.Broadcast("d1", models.Event{Type: models.EventTyping}, b)
	if len(a.byType(models.EventTyping)) != 1 || len(c.byType(models.EventTyping)) != 1 {
		t.Fatalf("included peers did not receive the event")
	}
	if len(b.byType(models.EventTyping)) != 0 {
		t.Fatalf("excluded peer received the event")
	}
}

func TestBroadcastIsolatedPerDrop(t *testing.T) {
	h := New()
	a, b := &fakePeer{}, &fakePeer{}
	h.Attach("d1", a, "alice")
	h.Attach("d2", b, "bob")

	h.Broadcast("d1", models.Event{Type: models.EventTyping}, nil)
	if len(b.byType(models.EventTyping)) != 0 {
		t.Fatalf("event leaked across drops")
	}
}

func TestDeadPeerReaped(t *testing.T) {
	h := New()
	a, dead := &fakePeer{}, &fakePeer{}
	h.Attach("d1", a, "alice")
	h.Attach("d1", dead, "bob")
	dead.broken = true

	h.Broadcast("d1", models.Event{Type: models.EventTyping}, nil)
	if h.Online("d1") != 1 {
		t.Fatalf("online = %d after dead peer, want 1", h.Online("d1"))
	}
	// survivors were told bob left
	evs := a.byType(models.EventPresence)
	last := evs[len(evs)-1]
	if last.User != "bob" || last.Online != 1 {
		t.Fatalf("leave event = %+v", last)
	}
}

func TestOnlineEmptyDrop(t *testing.T) {
	h := New()
	if h.Online("nobody") != 0 {
		t.Fatalf("empty drop should report 0 online")
	}
}
