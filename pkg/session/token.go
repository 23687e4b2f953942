// Package session issues and verifies the self-contained bearer tokens that
// gate both request-style and streaming access. Tokens are never stored
// server-side; validity is re-derived from the signature and embedded expiry
// on every use.
package session

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"
)

type payload struct {
	Exp int64 `json:"exp"`
}

// Authenticator signs and checks session tokens with a process-wide secret.
// The zero value is unusable; construct with New.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret []byte, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: secret, ttl: ttl, now: time.Now}
}

// NewWithClock is used by tests to control expiry.
func NewWithClock(secret []byte, ttl time.Duration, now func() time.Time) *Authenticator {
	return &Authenticator{secret: secret, ttl: ttl, now: now}
}

func (a *Authenticator) sign(b []byte) []byte {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write(b)
	return mac.Sum(nil)
}

// Issue returns an opaque token whose payload embeds an absolute expiry of
// now + TTL. Encoding: base64url(payload || '.' || hmac-sha256(payload)),
// unpadded.
func (a *Authenticator) Issue() string {
	p, _ := json.Marshal(payload{Exp: a.now().Unix() + int64(a.ttl/time.Second)})
	blob := append(append(p, '.'), a.sign(p)...)
	return base64.RawURLEncoding.EncodeToString(blob)
}

// Verify reports whether the token is authentic and unexpired. Any structural
// malformation (bad encoding, missing separator, unparsable payload) is a
// plain failure; callers learn only valid or invalid. The MAC comparison is
// constant-time.
func (a *Authenticator) Verify(token string) bool {
	blob, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	dot := bytes.IndexByte(blob, '.')
	if dot <= 0 {
		return false
	}
	p, mac := blob[:dot], blob[dot+1:]
	if !hmac.Equal(a.sign(p), mac) {
		return false
	}
	var pl payload
	if err := json.Unmarshal(p, &pl); err != nil {
		return false
	}
	return a.now().Unix() <= pl.Exp
}
