package blob

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestPutOpenRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := s.Put(strings.NewReader("hello blob"), "photo.png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasSuffix(id, ".png") {
		t.Fatalf("id %q should keep the extension", id)
	}

	rc, size, err := s.Open(id)
	if err != nil {
		t.Fatalf("Open blob: %v", err)
	}
	defer rc.Close()
	if size != int64(len("hello blob")) {
		t.Fatalf("size = %d", size)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "hello blob" {
		t.Fatalf("content = %q", data)
	}
}

func TestPutSizeLimit(t *testing.T) {
	s, err := Open(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Put(strings.NewReader("too large"), "f.bin"); err == nil {
		t.Fatalf("oversized put should fail")
	}
	// at the limit is fine
	if _, err := s.Put(strings.NewReader("1234"), "f.bin"); err != nil {
		t.Fatalf("at-limit put failed: %v", err)
	}
}

func TestOpenMissing(t *testing.T) {
	s, _ := Open(t.TempDir(), 0)
	if _, _, err := s.Open("nope.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	s, _ := Open(t.TempDir(), 0)
	for _, id := range []string{"../secret", "a/b", "a\\b", ""} {
		if _, _, err := s.Open(id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("id %q: err = %v, want ErrNotFound", id, err)
		}
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s, _ := Open(t.TempDir(), 0)
	id, err := s.Put(strings.NewReader("x"), "f.jpg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(id); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if _, _, err := s.Open(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blob still readable after delete")
	}
}

func TestContentType(t *testing.T) {
	if ct := ContentType("a.png"); ct != "image/png" {
		t.Fatalf("png content type = %q", ct)
	}
	if ct := ContentType("noext"); ct != "application/octet-stream" {
		t.Fatalf("fallback content type = %q", ct)
	}
}
