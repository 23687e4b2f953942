// Package store owns the durable message log and the per-drop sequencer.
// All mutations are single Pebble batches committed with Sync; the
// read-max/compute-next/insert critical section is serialized per drop.
package store

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"msgdrop/pkg/logger"
)

var (
	db     *pebble.DB
	dbPath string

	lockMu    sync.Mutex
	dropLocks map[string]*sync.Mutex
)

// Open opens (or creates) a Pebble database at the given path and keeps a
// package-level handle.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	dropLocks = make(map[string]*sync.Mutex)
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

func ready() error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return nil
}

// dropLock returns the mutex serializing writes for one drop. Independent
// drops proceed concurrently.
func dropLock(dropID string) *sync.Mutex {
	lockMu.Lock()
	defer lockMu.Unlock()
	l, ok := dropLocks[dropID]
	if !ok {
		l = &sync.Mutex{}
		dropLocks[dropID] = l
	}
	return l
}
