package models

import "encoding/json"

// Streaming event types. Inbound events with a type outside this set are
// silently ignored.
const (
	EventTyping          = "typing"
	EventPing            = "ping"
	EventPong            = "pong"
	EventPresence        = "presence"
	EventPresenceRequest = "presence_request"
	EventChat            = "chat"
	EventGif             = "gif"
	EventGame            = "game"
	EventUpdate          = "update"
	EventRoster          = "roster"
)

// Event is the tagged envelope carried on the streaming channel in both
// directions. Payload stays raw until the type is known.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	// Online is set on presence events and the attach-time roster.
	Online int `json:"online,omitempty"`
	// TS is set on pong replies (ms).
	TS int64 `json:"ts,omitempty"`
	// User is set on presence joined/left events.
	User string `json:"user,omitempty"`
	// Message is set on update events carrying a freshly appended record.
	Message *Message `json:"message,omitempty"`
}

// ChatPayload is the body of inbound chat and gif events.
type ChatPayload struct {
	Text     string   `json:"text,omitempty"`
	User     string   `json:"user,omitempty"`
	ClientID string   `json:"client_id,omitempty"`
	TS       int64    `json:"ts,omitempty"`
	Gif      *GifMeta `json:"gif,omitempty"`
}
