package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns n random bytes encoded as lowercase hex. Used for message
// and blob identifiers; callers pick the width (8 bytes for messages,
// 12 for blobs).
func NewID(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the platform entropy source is broken
		panic(err)
	}
	return hex.EncodeToString(b)
}
