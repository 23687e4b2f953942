// Package ws is the streaming transport: one long-lived handler per
// connection, authenticated once at attach time, registered in the hub, and
// feeding inbound chat events through the sequencer.
package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"msgdrop/pkg/hub"
	"msgdrop/pkg/logger"
	"msgdrop/pkg/models"
	"msgdrop/pkg/notify"
	"msgdrop/pkg/ratelimit"
	"msgdrop/pkg/session"
	"msgdrop/pkg/store"
	"msgdrop/pkg/telemetry"
	"msgdrop/pkg/utils"
	"msgdrop/pkg/validation"
)

// WriteLimit is the sliding-window threshold applied to inbound chat and
// gif events, keyed by the connection's identity.
type WriteLimit struct {
	Max    int
	Window time.Duration
}

type Handler struct {
	Auth       *session.Authenticator
	Hub        *hub.Hub
	Limiter    *ratelimit.Limiter
	WriteLimit WriteLimit
	Notifier   *notify.Notifier

	upgrader websocket.Upgrader
}

func NewHandler(auth *session.Authenticator, h *hub.Hub, lim *ratelimit.Limiter, wl WriteLimit, n *notify.Notifier) *Handler {
	return &Handler{
		Auth:       auth,
		Hub:        h,
		Limiter:    lim,
		WriteLimit: wl,
		Notifier:   n,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// ServeHTTP authenticates the attach, upgrades, registers the connection,
// then loops on inbound events until the transport drops.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("sessionToken")
	if token == "" {
		token = q.Get("sess")
	}
	if token == "" || !h.Auth.Verify(token) {
		logger.Warn("ws_attach_rejected", "remote", r.RemoteAddr)
		utils.JSONError(w, http.StatusUnauthorized, "bad session")
		return
	}

	dropID := q.Get("drop")
	if dropID == "" {
		dropID = q.Get("dropId")
	}
	if dropID == "" {
		dropID = "default"
	}
	user := q.Get("user")
	if user == "" {
		user = "anon"
	}

	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws_upgrade_failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	connID := uuid.NewString()
	conn := newConn(sock)
	h.Hub.Attach(dropID, conn, user)
	logger.Info("ws_attached", "conn", connID, "drop", dropID, "user", user)

	defer func() {
		h.Hub.Detach(dropID, conn)
		_ = conn.Close()
	}()

	for {
		var ev models.Event
		if err := sock.ReadJSON(&ev); err != nil {
			logger.Info("ws_disconnected", "conn", connID, "drop", dropID, "user", user)
			return
		}
		h.handleEvent(dropID, user, conn, ev)
	}
}

// handleEvent dispatches one inbound event. Unrecognized types are silently
// ignored, never errors.
func (h *Handler) handleEvent(dropID, user string, conn *Conn, ev models.Event) {
	switch ev.Type {
	case models.EventTyping:
		h.Hub.Broadcast(dropID, models.Event{Type: models.EventTyping, Payload: ev.Payload}, nil)
	case models.EventPing:
		if err := conn.Send(models.Event{Type: models.EventPong, TS: time.Now().UnixMilli()}); err != nil {
			h.Hub.Detach(dropID, conn)
		}
	case models.EventPresence, models.EventPresenceRequest:
		h.Hub.Broadcast(dropID, models.Event{
			Type:    ev.Type,
			Payload: ev.Payload,
			Online:  h.Hub.Online(dropID),
		}, nil)
	case models.EventChat:
		h.appendFromEvent(dropID, user, conn, ev, models.KindText)
	case models.EventGif:
		h.appendFromEvent(dropID, user, conn, ev, models.KindGif)
	case models.EventGame:
		h.Hub.Broadcast(dropID, models.Event{Type: models.EventGame, Payload: ev.Payload}, nil)
	default:
		// unrecognized inbound types are dropped on the floor
	}
}

// appendFromEvent runs an inbound chat or gif event through the write-class
// rate limit and the sequencer, then broadcasts the stored record.
func (h *Handler) appendFromEvent(dropID, user string, conn *Conn, ev models.Event, kind string) {
	if !h.Limiter.Allow("ws:"+user, h.WriteLimit.Max, h.WriteLimit.Window) {
		telemetry.RateLimited.WithLabelValues("write").Inc()
		logger.Warn("ws_write_limited", "drop", dropID, "user", user)
		return
	}
	var p models.ChatPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			logger.Warn("ws_bad_payload", "drop", dropID, "type", ev.Type)
			return
		}
	}
	author := p.User
	if author == "" {
		author = user
	}
	ts := p.TS
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	m := models.Message{
		ID:       utils.NewID(8),
		Author:   author,
		ClientID: p.ClientID,
		TS:       ts,
		Kind:     kind,
		Text:     p.Text,
		Gif:      p.Gif,
	}
	if err := validation.ValidateMessage(m); err != nil {
		logger.Warn("ws_message_rejected", "drop", dropID, "error", err)
		return
	}
	stored, err := store.Append(dropID, m)
	if err != nil {
		logger.Error("ws_append_failed", "drop", dropID, "error", err)
		return
	}
	telemetry.MessagesAppended.WithLabelValues(kind).Inc()

	h.Hub.Broadcast(dropID, models.Event{Type: models.EventUpdate, Message: &stored}, nil)
	h.Notifier.Send("msg", dropID, fmt.Sprintf("New message in %s", dropID))
}
