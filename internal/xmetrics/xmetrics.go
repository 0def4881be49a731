// Package xmetrics exposes the Prometheus instrumentation used by the
// bitfield package. Popcount-backed accounting
// (CompletedLength, CountMissingBlocks) is a hot path polled by UIs and
// trackers, per spec §4.4/§9; this package makes that cost observable
// instead of guessed at.
package xmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PopcountDuration tracks how long the batched-word popcount paths take.
	PopcountDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aria2",
		Subsystem: "bitfield",
		Name:      "popcount_seconds",
		Help:      "Time spent in popcount-backed accounting (CompletedLength, CountMissingBlocks).",
		Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
	})

	// SelectionsTotal counts selection-strategy invocations by strategy and
	// outcome (hit/miss), so an operator can see how often the swarm runs
	// dry on candidates for a given peer.
	SelectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aria2",
		Subsystem: "bitfield",
		Name:      "selections_total",
		Help:      "Selection-strategy invocations, labeled by strategy and outcome.",
	}, []string{"strategy", "outcome"})
)

func init() {
	prometheus.MustRegister(PopcountDuration, SelectionsTotal)
}

// ObservePopcount records the wall-clock cost of one popcount-backed
// accounting call.
func ObservePopcount(d time.Duration) {
	PopcountDuration.Observe(d.Seconds())
}

// ObserveSelection records the outcome of one selection-strategy call.
func ObserveSelection(strategy string, found bool) {
	outcome := "miss"
	if found {
		outcome = "hit"
	}
	SelectionsTotal.WithLabelValues(strategy, outcome).Inc()
}
