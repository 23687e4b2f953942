// Package hub owns live connection membership per drop and fans events out
// to the right subset of members. Dead peers are reaped lazily: a failed or
// timed-out send detaches the peer, there is no separate sweep.
package hub

import (
	"encoding/json"
	"sync"

	"msgdrop/pkg/logger"
	"msgdrop/pkg/models"
	"msgdrop/pkg/telemetry"
)

// Peer is one live streaming connection. Send must apply its own bounded
// time budget and return an error for a dead or stuck transport; the hub
// converts send failures into membership cleanup.
type Peer interface {
	Send(ev models.Event) error
}

type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[Peer]string
}

func New() *Hub {
	return &Hub{rooms: make(map[string]map[Peer]string)}
}

// Attach registers the connection under the drop, announces it to every
// *other* member, and sends the newcomer a synthesized who's-already-here
// roster. The newcomer never sees its own join echoed back.
func (h *Hub) Attach(dropID string, p Peer, identity string) {
	h.mu.Lock()
	room, ok := h.rooms[dropID]
	if !ok {
		room = make(map[Peer]string)
		h.rooms[dropID] = room
	}
	room[p] = identity
	online := len(room)
	others := make([]Peer, 0, online-1)
	names := make([]string, 0, online)
	for peer, name := range room {
		names = append(names, name)
		if peer != p {
			others = append(others, peer)
		}
	}
	h.mu.Unlock()
	telemetry.LiveConnections.Inc()
	logger.Info("hub_attach", "drop", dropID, "user", identity, "online", online)

	joined := models.Event{Type: models.EventPresence, User: identity, Online: online}
	h.deliver(dropID, others, joined)

	roster, _ := json.Marshal(names)
	if err := p.Send(models.Event{Type: models.EventRoster, Online: online, Payload: roster}); err != nil {
		h.Detach(dropID, p)
	}
}

// Detach removes the connection and broadcasts a presence-left event to the
// remaining members. Safe to call twice; the second call is a no-op.
func (h *Hub) Detach(dropID string, p Peer) {
	h.mu.Lock()
	room, ok := h.rooms[dropID]
	if !ok {
		h.mu.Unlock()
		return
	}
	identity, member := room[p]
	if !member {
		h.mu.Unlock()
		return
	}
	delete(room, p)
	if len(room) == 0 {
		delete(h.rooms, dropID)
	}
	online := len(room)
	rest := make([]Peer, 0, online)
	for peer := range room {
		rest = append(rest, peer)
	}
	h.mu.Unlock()
	telemetry.LiveConnections.Dec()
	logger.Info("hub_detach", "drop", dropID, "user", identity, "online", online)

	left := models.Event{Type: models.EventPresence, User: identity, Online: online}
	h.deliver(dropID, rest, left)
}

// Broadcast fans the event out to the drop's current membership, excluding
// the given peer if non-nil. Sends are bounded by the peer's own deadline;
// a slow consumer degrades to disconnection, never head-of-line blocking.
func (h *Hub) Broadcast(dropID string, ev models.Event, exclude Peer) {
	h.mu.Lock()
	room := h.rooms[dropID]
	peers := make([]Peer, 0, len(room))
	for peer := range room {
		if peer != exclude {
			peers = append(peers, peer)
		}
	}
	h.mu.Unlock()
	telemetry.Broadcasts.Inc()
	h.deliver(dropID, peers, ev)
}

// deliver sends to a snapshot of peers, collecting failures and detaching
// them after the sweep so one dead peer cannot stall the rest.
func (h *Hub) deliver(dropID string, peers []Peer, ev models.Event) {
	var dead []Peer
	for _, peer := range peers {
		if err := peer.Send(ev); err != nil {
			dead = append(dead, peer)
		}
	}
	for _, peer := range dead {
		telemetry.DeadPeers.Inc()
		logger.Warn("hub_peer_reaped", "drop", dropID, "type", ev.Type)
		h.Detach(dropID, peer)
	}
}

// Online returns the live member count for the drop.
func (h *Hub) Online(dropID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[dropID])
}
