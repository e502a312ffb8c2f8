// Package api exposes a debug/observability HTTP surface over a running
// Manager: a read-only JSON snapshot dump, the event log, `/healthz`, and
// Prometheus metrics. It is explicitly NOT the out-of-scope player-facing
// control surface (spec.md §9 Non-goals) — every route here is either
// read-only or drives the same lifecycle commands an operator's CLI would.
// Grounded on the teacher's internal/api/observability.go: bounded-
// cardinality promauto metrics plus a debug-only mux.
package api

import (
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "worldsim_tick_duration_seconds",
		Help:    "Time spent in one WorldLoop tick",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.04, 0.1, 0.25},
	})

	entityCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worldsim_entity_count",
		Help: "Current number of live entities in the published snapshot",
	})

	tickNumber = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worldsim_tick_number",
		Help: "Tick number of the most recently published snapshot",
	})

	proposalsDowngraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worldsim_proposals_downgraded_total",
		Help: "Proposals downgraded to Rest by the resolver for failing live validation",
	})

	workerDeadlineMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worldsim_worker_deadline_misses_total",
		Help: "Actors whose proposal was not computed before the worker pool deadline",
	})

	eventLogTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worldsim_event_log_total",
		Help: "Total events accepted into the event log",
	})

	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worldsim_event_log_dropped_total",
		Help: "Events dropped by the event log's rate limiter",
	})

	managerStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worldsim_manager_status",
		Help: "EngineManager lifecycle state: 0=Stopped 1=Running 2=Paused",
	})
)

// RecordTick records one tick's wall-clock duration.
func RecordTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// UpdateEntityCount sets the live-entity gauge.
func UpdateEntityCount(n int) { entityCount.Set(float64(n)) }

// UpdateTickNumber sets the latest published tick number.
func UpdateTickNumber(tick int64) { tickNumber.Set(float64(tick)) }

// RecordProposalsDowngraded increments the downgrade counter by n.
func RecordProposalsDowngraded(n int) { proposalsDowngraded.Add(float64(n)) }

// RecordWorkerDeadlineMisses increments the deadline-miss counter by n.
func RecordWorkerDeadlineMisses(n int) { workerDeadlineMisses.Add(float64(n)) }

// UpdateEventLogStats sets the event log's cumulative counters. Since
// Prometheus counters only increase, callers pass cumulative totals and
// this records the delta against the last observed value.
var lastEventTotal, lastEventDropped uint64

func UpdateEventLogStats(total int64, dropped uint64) {
	t := uint64(total)
	if t > lastEventTotal {
		eventLogTotal.Add(float64(t - lastEventTotal))
		lastEventTotal = t
	}
	if dropped > lastEventDropped {
		eventLogDropped.Add(float64(dropped - lastEventDropped))
		lastEventDropped = dropped
	}
}

// UpdateManagerStatus sets the lifecycle-state gauge from a 0/1/2 code.
func UpdateManagerStatus(code int) { managerStatus.Set(float64(code)) }

// pprofIndex is an alias of net/http/pprof.Index; router.go imports
// net/http/pprof itself and registers pprof.Index directly.
var pprofIndex = pprof.Index
