package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/pebble"

	"msgdrop/pkg/logger"
	"msgdrop/pkg/models"
)

// lastSeqLocked reads the per-drop seq meta. Falls back to scanning the last
// message key when the meta is missing (data written before the meta existed).
// Caller must hold the drop lock for writes.
func lastSeqLocked(dropID string) (int64, error) {
	v, closer, err := db.Get(seqKey(dropID))
	if err == nil {
		defer closer.Close()
		n, perr := strconv.ParseInt(string(v), 10, 64)
		if perr != nil {
			return 0, fmt.Errorf("corrupt seq meta for drop %s: %w", dropID, perr)
		}
		return n, nil
	}
	if err != pebble.ErrNotFound {
		return 0, err
	}
	prefix := msgPrefix(dropID)
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	if !iter.Last() {
		return 0, nil
	}
	var m models.Message
	if err := json.Unmarshal(iter.Value(), &m); err != nil {
		return 0, fmt.Errorf("corrupt tail record for drop %s: %w", dropID, err)
	}
	return m.Seq, nil
}

// Append allocates the next sequence number for the drop and persists the
// record under it, as one atomic unit. The drop is created implicitly on
// first write. Returns the record as persisted, seq and timestamps filled
// in, so callers broadcast exactly what a later read would return.
func Append(dropID string, m models.Message) (models.Message, error) {
	if err := ready(); err != nil {
		return models.Message{}, err
	}
	l := dropLock(dropID)
	l.Lock()
	defer l.Unlock()

	last, err := lastSeqLocked(dropID)
	if err != nil {
		return models.Message{}, err
	}
	next := last + 1
	m.Drop = dropID
	m.Seq = next
	m.Img = ""
	now := time.Now().UnixMilli()
	if m.TS == 0 {
		m.TS = now
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	m.UpdatedAt = m.CreatedAt

	data, err := json.Marshal(m)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to marshal message: %w", err)
	}
	b := db.NewBatch()
	defer b.Close()
	if err := b.Set(msgKey(dropID, next), data, nil); err != nil {
		return models.Message{}, err
	}
	if err := b.Set(seqKey(dropID), []byte(strconv.FormatInt(next, 10)), nil); err != nil {
		return models.Message{}, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Error("append_failed", "drop", dropID, "seq", next, "error", err)
		return models.Message{}, err
	}
	logger.Info("message_saved", "drop", dropID, "seq", next, "msg_id", m.ID)
	return m, nil
}

func getMessage(dropID string, seq int64) (models.Message, bool, error) {
	v, closer, err := db.Get(msgKey(dropID, seq))
	if err == pebble.ErrNotFound {
		return models.Message{}, false, nil
	}
	if err != nil {
		return models.Message{}, false, err
	}
	defer closer.Close()
	var m models.Message
	if err := json.Unmarshal(v, &m); err != nil {
		return models.Message{}, false, fmt.Errorf("corrupt record %s/%d: %w", dropID, seq, err)
	}
	return m, true, nil
}

func putMessage(m models.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	b := db.NewBatch()
	defer b.Close()
	if err := b.Set(msgKey(m.Drop, m.Seq), data, nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// Edit replaces the text of (dropID, seq) and bumps updatedAt. Editing a
// nonexistent record is a no-op, not an error.
func Edit(dropID string, seq int64, text string) error {
	if err := ready(); err != nil {
		return err
	}
	l := dropLock(dropID)
	l.Lock()
	defer l.Unlock()

	m, ok, err := getMessage(dropID, seq)
	if err != nil || !ok {
		return err
	}
	m.Text = text
	m.UpdatedAt = time.Now().UnixMilli()
	return putMessage(m)
}

// React adjusts the named emoji's count: add => +1, remove => max(0, n-1).
// Returns ErrNotFound for a missing message and ErrInvalidOp for any op
// other than add or remove.
func React(dropID string, seq int64, emoji, op string) (map[string]int, error) {
	if err := ready(); err != nil {
		return nil, err
	}
	if op != "add" && op != "remove" {
		return nil, ErrInvalidOp
	}
	l := dropLock(dropID)
	l.Lock()
	defer l.Unlock()

	m, ok, err := getMessage(dropID, seq)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if m.Reactions == nil {
		m.Reactions = make(map[string]int)
	}
	switch op {
	case "add":
		m.Reactions[emoji]++
	case "remove":
		if m.Reactions[emoji] > 0 {
			m.Reactions[emoji]--
		}
	}
	m.UpdatedAt = time.Now().UnixMilli()
	if err := putMessage(m); err != nil {
		return nil, err
	}
	return m.Reactions, nil
}

// Delete removes the record and returns any blob reference it held so the
// caller can release the blob. The seq meta is untouched: the number is
// retired and the gap is intentional. Deleting a missing record is a no-op.
func Delete(dropID string, seq int64) (string, error) {
	if err := ready(); err != nil {
		return "", err
	}
	l := dropLock(dropID)
	l.Lock()
	defer l.Unlock()

	m, ok, err := getMessage(dropID, seq)
	if err != nil || !ok {
		return "", err
	}
	b := db.NewBatch()
	defer b.Close()
	if err := b.Delete(msgKey(dropID, seq), nil); err != nil {
		return "", err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return "", err
	}
	logger.Info("message_deleted", "drop", dropID, "seq", seq)
	return m.BlobID, nil
}

// DeleteByBlob removes every message in the drop referencing the blob.
// Returns the number of records removed.
func DeleteByBlob(dropID, blobID string) (int, error) {
	if err := ready(); err != nil {
		return 0, err
	}
	l := dropLock(dropID)
	l.Lock()
	defer l.Unlock()

	prefix := msgPrefix(dropID)
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return 0, err
	}
	b := db.NewBatch()
	defer b.Close()
	removed := 0
	for iter.First(); iter.Valid(); iter.Next() {
		var m models.Message
		if json.Unmarshal(iter.Value(), &m) != nil {
			continue
		}
		if m.BlobID == blobID {
			key := append([]byte(nil), iter.Key()...)
			if err := b.Delete(key, nil); err != nil {
				iter.Close()
				return 0, err
			}
			removed++
		}
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, nil
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	return removed, nil
}

// List returns up to limit most-recent records with ts < beforeTS (when
// beforeTS > 0), ordered oldest-to-newest, plus the drop's current max seq
// as a freshness marker for callers.
func List(dropID string, limit int, beforeTS int64) ([]models.Message, int64, error) {
	if err := ready(); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 200
	}
	prefix := msgPrefix(dropID)
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return nil, 0, err
	}
	defer iter.Close()

	// walk newest-to-oldest, then reverse
	out := make([]models.Message, 0, limit)
	for ok := iter.Last(); ok && len(out) < limit; ok = iter.Prev() {
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			logger.Warn("skipping_corrupt_record", "drop", dropID, "key", string(iter.Key()))
			continue
		}
		if beforeTS > 0 && m.TS >= beforeTS {
			continue
		}
		out = append(out, m)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	last, err := LastSeq(dropID)
	if err != nil {
		return nil, 0, err
	}
	return out, last, nil
}

// ReferencedBlobs returns the set of blob ids some message still references,
// across every drop. The janitor diffs this against the blob directory to
// find orphans.
func ReferencedBlobs() (map[string]struct{}, error) {
	if err := ready(); err != nil {
		return nil, err
	}
	prefix := []byte("drop:")
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	refs := make(map[string]struct{})
	for iter.First(); iter.Valid(); iter.Next() {
		if bytes.HasSuffix(iter.Key(), []byte(":seq")) {
			continue
		}
		var m models.Message
		if json.Unmarshal(iter.Value(), &m) != nil {
			continue
		}
		if m.BlobID != "" {
			refs[m.BlobID] = struct{}{}
		}
	}
	return refs, nil
}

// LastSeq returns the highest sequence number ever allocated for the drop
// (0 when the drop has never been written).
func LastSeq(dropID string) (int64, error) {
	if err := ready(); err != nil {
		return 0, err
	}
	v, closer, err := db.Get(seqKey(dropID))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	n, perr := strconv.ParseInt(string(v), 10, 64)
	if perr != nil {
		return 0, fmt.Errorf("corrupt seq meta for drop %s: %w", dropID, perr)
	}
	return n, nil
}
