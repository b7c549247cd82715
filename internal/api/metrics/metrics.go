// Package metrics defines and registers all custom Prometheus metrics for the
// community events service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "community"

// ── Moderation metrics ────────────────────────────────────────────────────────

// ReportsFiledTotal counts reports filed against events.
// Label:
//   - type: the report type (e.g. "spam", "scam")
var ReportsFiledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_filed_total",
		Help:      "Total number of reports filed against events.",
	},
	[]string{"type"},
)

// ReportsResolvedTotal counts resolved reports.
// Label:
//   - outcome: "approved" or "rejected"
var ReportsResolvedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_resolved_total",
		Help:      "Total number of reports resolved, by outcome.",
	},
	[]string{"outcome"},
)

// ResolutionDuration measures how long resolving a report takes end-to-end,
// including the event mutation and the audit append.
// Label:
//   - outcome: "approved", "rejected" or "error"
var ResolutionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "report_resolution_duration_seconds",
		Help:      "Duration of report resolution from request to commit.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"outcome"},
)

// EventsBlockedTotal counts events hidden by an explicit moderator block.
var EventsBlockedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_blocked_total",
		Help:      "Total number of events blocked by moderators.",
	},
)

// ── Membership metrics ────────────────────────────────────────────────────────

// JoinsTotal counts join attempts.
// Label:
//   - result: "joined", "full", "already_member", "not_found", "inactive", "error"
var JoinsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_joins_total",
		Help:      "Total number of join attempts, by result.",
	},
	[]string{"result"},
)

// EventsCreatedTotal counts newly created events.
var EventsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_created_total",
		Help:      "Total number of events created.",
	},
)

// ── Notification bus metrics ──────────────────────────────────────────────────

// NotificationsPublishedTotal counts notifications delivered to subscribers.
// Label:
//   - topic: the notification topic (e.g. "report.filed")
var NotificationsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_published_total",
		Help:      "Total number of notifications delivered, by topic.",
	},
	[]string{"topic"},
)

// NotificationsQueueDepth tracks the number of notifications waiting in each
// bus worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_queue_depth",
		Help:      "Current number of notifications pending in each bus worker channel.",
	},
	[]string{"worker_id"},
)
