package session

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	a := New([]byte("test-secret"), 5*time.Minute)
	tok := a.Issue()
	if tok == "" {
		t.Fatalf("expected non-empty token")
	}
	if !a.Verify(tok) {
		t.Fatalf("expected freshly issued token to verify")
	}
}

func TestVerifyExpired(t *testing.T) {
	base := time.Now()
	clock := base
	a := NewWithClock([]byte("test-secret"), 5*time.Minute, func() time.Time { return clock })

	tok := a.Issue()
	if !a.Verify(tok) {
		t.Fatalf("token should be valid before expiry")
	}

	clock = base.Add(5*time.Minute + time.Second)
	if a.Verify(tok) {
		t.Fatalf("token should be rejected after expiry")
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	a := New([]byte("test-secret"), 5*time.Minute)
	tok := a.Issue()

	blob, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// push the expiry out by editing a digit of the payload
	mutated := strings.Replace(string(blob), "\"exp\":", "\"exp\":9", 1)
	forged := base64.RawURLEncoding.EncodeToString([]byte(mutated))
	if a.Verify(forged) {
		t.Fatalf("tampered token must not verify")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	a := New([]byte("secret-a"), 5*time.Minute)
	b := New([]byte("secret-b"), 5*time.Minute)
	if b.Verify(a.Issue()) {
		t.Fatalf("token signed with a different secret must not verify")
	}
}

func TestVerifyGarbage(t *testing.T) {
	a := New([]byte("test-secret"), 5*time.Minute)
	for _, tok := range []string{"", "not base64!!", base64.RawURLEncoding.EncodeToString([]byte("nodot"))} {
		if a.Verify(tok) {
			t.Fatalf("garbage token %q must not verify", tok)
		}
	}
}
