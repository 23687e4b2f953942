package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"msgdrop/pkg/hub"
	"msgdrop/pkg/models"
	"msgdrop/pkg/notify"
	"msgdrop/pkg/ratelimit"
	"msgdrop/pkg/session"
	"msgdrop/pkg/store"
)

func newTestHandler(t *testing.T) (*httptest.Server, *session.Authenticator) {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	a := session.New([]byte("test-secret"), 5*time.Minute)
	h := NewHandler(a, hub.New(), ratelimit.New(),
		WriteLimit{Max: 100, Window: time.Minute},
		notify.NewNotifier(notify.LogSink{}, time.Minute))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, a
}

func dial(t *testing.T, srv *httptest.Server, token, drop, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"?sessionToken=" + token + "&drop=" + drop + "&user=" + user
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readEvent(t *testing.T, c *websocket.Conn) models.Event {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
	var ev models.Event
	if err := c.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestAttachRejectedWithoutSession(t *testing.T) {
	srv, _ := newTestHandler(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?drop=d1"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("dial without token should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func TestAttachReceivesRoster(t *testing.T) {
	srv, a := newTestHandler(t)
	c := dial(t, srv, a.Issue(), "d1", "alice")

	ev := readEvent(t, c)
	if ev.Type != models.EventRoster || ev.Online != 1 {
		t.Fatalf("first event = %+v, want roster with online=1", ev)
	}
	var names []string
	if err := json.Unmarshal(ev.Payload, &names); err != nil {
		t.Fatalf("roster payload: %v", err)
	}
	if len(names) != 1 || names[0] != "alice" {
		t.Fatalf("roster names = %v", names)
	}
}

func TestJoinAnnouncedToExistingMembers(t *testing.T) {
	srv, a := newTestHandler(t)
	c1 := dial(t, srv, a.Issue(), "d1", "alice")
	readEvent(t, c1) // roster

	c2 := dial(t, srv, a.Issue(), "d1", "bob")
	readEvent(t, c2) // bob's roster

	ev := readEvent(t, c1)
	if ev.Type != models.EventPresence || ev.User != "bob" || ev.Online != 2 {
		t.Fatalf("join event = %+v", ev)
	}
}

func TestChatEventAppendsAndBroadcasts(t *testing.T) {
	srv, a := newTestHandler(t)
	c1 := dial(t, srv, a.Issue(), "d1", "alice")
	readEvent(t, c1)
	c2 := dial(t, srv, a.Issue(), "d1", "bob")
	readEvent(t, c2)
	readEvent(t, c1) // bob joined

	payload, _ := json.Marshal(models.ChatPayload{Text: "hello", ClientID: "c-1"})
	if err := c1.WriteJSON(models.Event{Type: models.EventChat, Payload: payload}); err != nil {
		t.Fatalf("write chat: %v", err)
	}

	for _, c := range []*websocket.Conn{c1, c2} {
		ev := readEvent(t, c)
		if ev.Type != models.EventUpdate || ev.Message == nil {
			t.Fatalf("update event = %+v", ev)
		}
		if ev.Message.Text != "hello" || ev.Message.Seq != 1 || ev.Message.Author != "alice" {
			t.Fatalf("message = %+v", ev.Message)
		}
		if ev.Message.ClientID != "c-1" {
			t.Fatalf("client id not echoed: %+v", ev.Message)
		}
		if ev.Message.CreatedAt == 0 || ev.Message.UpdatedAt != ev.Message.CreatedAt {
			t.Fatalf("broadcast timestamps: %+v", ev.Message)
		}
	}

	// the record is durable
	msgs, last, err := store.List("d1", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 1 || last != 1 {
		t.Fatalf("stored %d messages, lastSeq %d", len(msgs), last)
	}
}

func TestPingGetsPong(t *testing.T) {
	srv, a := newTestHandler(t)
	c := dial(t, srv, a.Issue(), "d1", "alice")
	readEvent(t, c)

	if err := c.WriteJSON(models.Event{Type: models.EventPing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	ev := readEvent(t, c)
	if ev.Type != models.EventPong || ev.TS == 0 {
		t.Fatalf("pong = %+v", ev)
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	srv, a := newTestHandler(t)
	c := dial(t, srv, a.Issue(), "d1", "alice")
	readEvent(t, c)

	if err := c.WriteJSON(models.Event{Type: "mystery"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// connection stays up; a ping still answers
	if err := c.WriteJSON(models.Event{Type: models.EventPing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if ev := readEvent(t, c); ev.Type != models.EventPong {
		t.Fatalf("event after unknown type = %+v", ev)
	}
}

func TestLeaveAnnounced(t *testing.T) {
	srv, a := newTestHandler(t)
	c1 := dial(t, srv, a.Issue(), "d1", "alice")
	readEvent(t, c1)
	c2 := dial(t, srv, a.Issue(), "d1", "bob")
	readEvent(t, c2)
	readEvent(t, c1) // bob joined

	_ = c2.Close()
	ev := readEvent(t, c1)
	if ev.Type != models.EventPresence || ev.User != "bob" || ev.Online != 1 {
		t.Fatalf("leave event = %+v", ev)
	}
}
