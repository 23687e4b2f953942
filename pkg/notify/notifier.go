// Package notify sends debounced, best-effort notifications to an external
// sink. Failures never propagate to the write path that triggered them.
package notify

import (
	"time"

	"msgdrop/pkg/logger"
	"msgdrop/pkg/telemetry"
)

type Notifier struct {
	sink     Sink
	debounce *Debouncer
	window   time.Duration
}

func NewNotifier(sink Sink, window time.Duration) *Notifier {
	return &Notifier{sink: sink, debounce: NewDebouncer(), window: window}
}

// Debouncer exposes the underlying debounce state for the janitor sweep.
func (n *Notifier) Debouncer() *Debouncer { return n.debounce }

// Send fires the sink asynchronously unless a notification of the same kind
// for the same drop fired within the debounce window. The caller never
// blocks on and never learns about sink failures.
func (n *Notifier) Send(kind, dropID, message string) {
	if n == nil || n.sink == nil {
		return
	}
	if !n.debounce.ShouldFire(kind, dropID, n.window) {
		telemetry.NotifySuppressed.Inc()
		return
	}
	go func() {
		if err := n.sink.Notify(message); err != nil {
			logger.Warn("notify_failed", "kind", kind, "drop", dropID, "error", err)
			return
		}
		telemetry.NotifySent.Inc()
	}()
}
