package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gochat_sync_notifications_total",
			Help: "Change notifications received per topic.",
		},
		[]string{"topic"},
	)

	Reloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gochat_sync_reloads_total",
			Help: "Slice reloads per topic and outcome (applied, failed, stale, discarded).",
		},
		[]string{"topic", "outcome"},
	)

	CoalescedNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gochat_sync_coalesced_total",
			Help: "Notifications folded into an already scheduled reload.",
		},
		[]string{"topic"},
	)

	Rewatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gochat_sync_rewatches_total",
			Help: "Change streams re-established after the notifier closed them.",
		},
		[]string{"topic"},
	)

	DroppedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gochat_notifier_dropped_events_total",
			Help: "Async publishes dropped because the event buffer was full.",
		},
		[]string{"topic"},
	)

	DLPWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gochat_dlp_warnings_total",
			Help: "DLP rule hits on outbound messages by tag.",
		},
		[]string{"tag"},
	)

	OrphanBlobs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gochat_orphan_blobs_total",
			Help: "Objects stored whose attachment record could not be created.",
		},
	)

	SearchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gochat_search_failures_total",
			Help: "Search calls failed by category.",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(
		Notifications,
		Reloads,
		CoalescedNotifications,
		Rewatches,
		DroppedEvents,
		DLPWarnings,
		OrphanBlobs,
		SearchFailures,
	)
}
