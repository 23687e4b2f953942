// Package blob is a filesystem content store keyed by opaque generated ids.
// Messages hold non-owning references; the API layer requests deletion when
// the owning message goes away.
package blob

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"msgdrop/pkg/logger"
	"msgdrop/pkg/utils"
)

var ErrNotFound = errors.New("blob not found")

type Store struct {
	dir     string
	maxSize int64
}

// Open ensures the blob directory exists. maxSize bounds a single Put;
// zero means unbounded.
func Open(dir string, maxSize int64) (*Store, error) {
	if dir == "" {
		return nil, errors.New("blob: dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// sanitize keeps ids strictly one path element deep.
func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, id), nil
}

// Put streams r into a new blob and returns its generated id. The original
// filename's extension is preserved on the id so serving can derive a
// content type.
func (s *Store) Put(r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	id := utils.NewID(12) + ext
	dest := filepath.Join(s.dir, id)

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}
	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxSize > 0 && n > s.maxSize {
		err = fmt.Errorf("blob exceeds max size %d", s.maxSize)
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", err
	}
	logger.Info("blob_saved", "id", id, "bytes", n)
	return id, nil
}

// Open returns a reader over the stored blob plus its size.
func (s *Store) Open(id string) (io.ReadSeekCloser, int64, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, fi.Size(), nil
}

// Delete removes the blob. Missing blobs are a no-op.
func (s *Store) Delete(id string) error {
	p, err := s.path(id)
	if err != nil {
		return nil
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ContentType derives a serving content type from the id's extension,
// falling back to application/octet-stream.
func ContentType(id string) string {
	if ct := mime.TypeByExtension(filepath.Ext(id)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// SweepOrphans removes every blob whose id is absent from the referenced
// set. Returns the number removed. Callers pass the full set of ids the
// message log still points at; anything else in the directory is garbage.
func (s *Store) SweepOrphans(referenced map[string]struct{}) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := referenced[e.Name()]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			logger.Warn("blob_orphan_remove_failed", "id", e.Name(), "error", err)
			continue
		}
		logger.Info("blob_orphan_removed", "id", e.Name())
		removed++
	}
	return removed, nil
}
