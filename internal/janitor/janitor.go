// Package janitor runs periodic hygiene on a cron schedule: rate-limit
// windows and notification debounce entries accumulate one bucket per
// identity and idle buckets are reclaimed, and blobs no message references
// anymore are removed from disk.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"msgdrop/pkg/blob"
	"msgdrop/pkg/config"
	"msgdrop/pkg/logger"
	"msgdrop/pkg/notify"
	"msgdrop/pkg/ratelimit"
	"msgdrop/pkg/store"
)

// Deps are the sweepable components.
type Deps struct {
	Limiter  *ratelimit.Limiter
	Debounce *notify.Debouncer
	Blobs    *blob.Store
}

// Start launches the janitor scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.JanitorConfig, deps Deps) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("janitor_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("janitor_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid janitor cron expression: %s", cfg.Cron)
	}
	maxIdle := cfg.MaxIdle.D()
	if maxIdle <= 0 {
		maxIdle = 24 * time.Hour
	}

	logger.Info("janitor_enabled", "cron", cronExpr, "max_idle", maxIdle.String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, maxIdle, deps)
	return cancel, nil
}

// runScheduler sleeps until the next cron tick and sweeps. gronx gives the
// exact next fire time, so no polling loop is needed.
func runScheduler(ctx context.Context, cronExpr string, maxIdle time.Duration, deps Deps) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("janitor_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("janitor_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			RunOnce(maxIdle, deps)
		case <-ctx.Done():
			logger.Info("janitor_stopping")
			return
		}
	}
}

// RunOnce performs a single sweep. Exposed so tests can trigger it without
// waiting for a tick.
func RunOnce(maxIdle time.Duration, deps Deps) {
	start := time.Now()
	var windows, entries, orphans int
	if deps.Limiter != nil {
		windows = deps.Limiter.Sweep(maxIdle)
	}
	if deps.Debounce != nil {
		entries = deps.Debounce.Sweep(maxIdle)
	}
	if deps.Blobs != nil {
		refs, err := store.ReferencedBlobs()
		if err != nil {
			logger.Warn("janitor_blob_scan_failed", "error", err)
		} else if orphans, err = deps.Blobs.SweepOrphans(refs); err != nil {
			logger.Warn("janitor_blob_sweep_failed", "error", err)
		}
	}
	logger.Info("janitor_swept",
		"rate_windows", windows,
		"debounce_entries", entries,
		"orphan_blobs", orphans,
		"elapsed", time.Since(start).String(),
	)
}
