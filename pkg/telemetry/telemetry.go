// Package telemetry registers the process-wide prometheus metrics. The
// /metrics endpoint is mounted by the app via promhttp.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msgdrop_messages_appended_total",
		Help: "Messages appended to the log, by kind.",
	}, []string{"kind"})

	Broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "msgdrop_hub_broadcasts_total",
		Help: "Hub broadcast fan-outs.",
	})

	DeadPeers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "msgdrop_hub_dead_peers_total",
		Help: "Connections reaped after a failed or timed-out send.",
	})

	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "msgdrop_hub_connections",
		Help: "Live streaming connections across all drops.",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msgdrop_rate_limited_total",
		Help: "Requests denied by the sliding-window limiter, by class.",
	}, []string{"class"})

	NotifySent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "msgdrop_notify_sent_total",
		Help: "Notifications handed to the external sink.",
	})

	NotifySuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "msgdrop_notify_suppressed_total",
		Help: "Notifications suppressed by the debouncer.",
	})
)
