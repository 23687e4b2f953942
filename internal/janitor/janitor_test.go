package janitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"msgdrop/pkg/blob"
	"msgdrop/pkg/config"
	"msgdrop/pkg/models"
	"msgdrop/pkg/notify"
	"msgdrop/pkg/ratelimit"
	"msgdrop/pkg/store"
)

func TestRunOnceSweeps(t *testing.T) {
	base := time.Now()
	clock := base
	lim := ratelimit.NewWithClock(func() time.Time { return clock })
	deb := notify.NewDebouncerWithClock(func() time.Time { return clock })

	lim.Allow("stale", 5, time.Minute)
	deb.ShouldFire("msg", "stale", time.Minute)
	clock = base.Add(48 * time.Hour)

	RunOnce(24*time.Hour, Deps{Limiter: lim, Debounce: deb})

	// swept identities get a fresh window
	if !lim.Allow("stale", 1, time.Hour) {
		t.Fatalf("limiter entry survived the sweep")
	}
	if !deb.ShouldFire("msg", "stale", time.Hour) {
		t.Fatalf("debounce entry survived the sweep")
	}
}

func TestRunOnceRemovesOrphanBlobs(t *testing.T) {
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	blobs, err := blob.Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("blob.Open: %v", err)
	}

	kept, err := blobs.Put(strings.NewReader("kept"), "kept.png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	orphan, err := blobs.Put(strings.NewReader("orphan"), "orphan.png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Append("d1", models.Message{Kind: models.KindImage, BlobID: kept}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	RunOnce(24*time.Hour, Deps{Blobs: blobs})

	if _, _, err := blobs.Open(orphan); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("orphan blob survived the sweep: %v", err)
	}
	r, _, err := blobs.Open(kept)
	if err != nil {
		t.Fatalf("referenced blob removed by the sweep: %v", err)
	}
	r.Close()
}

func TestStartRejectsBadCron(t *testing.T) {
	cfg := config.JanitorConfig{Enabled: true, Cron: "not a cron"}
	if _, err := Start(context.Background(), cfg, Deps{}); err == nil {
		t.Fatalf("expected error for invalid cron expression")
	}
}

func TestStartDisabled(t *testing.T) {
	cancel, err := Start(context.Background(), config.JanitorConfig{}, Deps{})
	if err != nil {
		t.Fatalf("disabled janitor: %v", err)
	}
	cancel()
}
