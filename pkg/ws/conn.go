package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"msgdrop/pkg/models"
)

// writeTimeout is the bounded time budget for one outbound send. A peer
// that cannot accept a frame within it is treated as dead by the hub.
const writeTimeout = 5 * time.Second

// Conn adapts a websocket connection to hub.Peer. Writes are serialized by
// a mutex since broadcasts and direct replies land on the same transport.
type Conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Send writes one event with the write deadline applied. Errors mark the
// peer dead; the hub handles the detach.
func (c *Conn) Send(ev models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(ev)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
