package models

// Message kinds recognized by the log. Unknown kinds are rejected at the
// validation layer before anything is persisted.
const (
	KindText  = "text"
	KindImage = "image"
	KindGif   = "gif"
)

type Message struct {
	ID   string `json:"id"`
	Drop string `json:"drop_id"`
	// Seq is the strictly increasing per-drop ordinal. Assigned once by the
	// store on append and never reused, even after deletion.
	Seq int64 `json:"seq"`
	// TS is the client-facing timestamp (ms); list pagination filters on it.
	TS        int64  `json:"ts"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	Author    string `json:"user,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Kind      string `json:"message_type"`
	Text      string `json:"text,omitempty"`
	// BlobID is a non-owning reference into the blob store. The store returns
	// it on delete so the caller can release the blob.
	BlobID string `json:"blob_id,omitempty"`
	Mime   string `json:"mime,omitempty"`
	// Img is the serving URL for the referenced blob, derived from BlobID at
	// the API layer on every read and broadcast. Never persisted.
	Img string `json:"img,omitempty"`
	// Reactions maps emoji -> count; counts never go below zero.
	Reactions map[string]int `json:"reactions,omitempty"`
	Gif       *GifMeta       `json:"gif,omitempty"`
}

// GifMeta carries the metadata of a gif-kind message.
type GifMeta struct {
	URL     string `json:"url"`
	Preview string `json:"preview,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}
