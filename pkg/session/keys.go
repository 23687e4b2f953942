package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrCreateSecret returns the signing secret stored at path, generating
// and persisting a fresh 32-byte secret on first boot. The file holds the
// secret hex-encoded, mode 0600.
func LoadOrCreateSecret(path string) ([]byte, error) {
	if b, err := os.ReadFile(path); err == nil {
		sec, derr := hex.DecodeString(strings.TrimSpace(string(b)))
		if derr != nil {
			return nil, fmt.Errorf("malformed session key file %s: %w", path, derr)
		}
		return sec, nil
	}
	sec := make([]byte, 32)
	if _, err := rand.Read(sec); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(sec)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to persist session key: %w", err)
	}
	return sec, nil
}
