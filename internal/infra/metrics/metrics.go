// Package metrics provides Prometheus metrics for Shadow — counters and
// gauges for the practice event pipeline, the document store, and the
// popup presentation layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Practice Events ────────────────────────────────────────────────────────

// EventsRecorded tracks recorded practice events by type.
var EventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "shadow",
	Name:      "events_recorded_total",
	Help:      "Total practice events recorded.",
}, []string{"type"})

// MilestonesDetected tracks milestone crossings by scope.
var MilestonesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "shadow",
	Name:      "milestones_detected_total",
	Help:      "Total milestone crossings detected.",
}, []string{"scope"})

// StreakDays tracks the current practice streak length.
var StreakDays = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "shadow",
	Name:      "streak_days",
	Help:      "Current consecutive-day practice streak.",
})

// ─── Persistence ────────────────────────────────────────────────────────────

// ReconciliationReads tracks lifetime-total mirror reconciliations against
// the backing store.
var ReconciliationReads = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "shadow",
	Name:      "reconciliation_reads_total",
	Help:      "Total smart-sync reads of the lifetime-total mirror.",
})

// PersistenceFailures tracks store errors swallowed by the fire-and-forget
// write path, by operation.
var PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "shadow",
	Name:      "persistence_failures_total",
	Help:      "Total store failures swallowed by the stats write path.",
}, []string{"op"})

// ─── Presentation ───────────────────────────────────────────────────────────

// PopupsShown tracks presented popups by kind.
var PopupsShown = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "shadow",
	Name:      "popups_shown_total",
	Help:      "Total popups presented, by kind.",
}, []string{"kind"})

// PopupsDismissed tracks user dismissals.
var PopupsDismissed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "shadow",
	Name:      "popups_dismissed_total",
	Help:      "Total popups dismissed by the user.",
})
