// Package metrics provides Prometheus metrics for the newsreader server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route and status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsreader",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	// RequestDuration measures HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsreader",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ShelfWrites counts saved-article writes by operation and outcome.
	ShelfWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsreader",
			Name:      "shelf_writes_total",
			Help:      "Saved-article array writes by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// VersionConflicts counts compare-and-swap retries on saved-article rows.
	VersionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsreader",
			Name:      "shelf_version_conflicts_total",
			Help:      "Saved-article writes that lost a concurrent update and were retried",
		},
	)

	// CorruptEntries counts unparseable saved-article documents seen on read.
	CorruptEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsreader",
			Name:      "shelf_corrupt_entries_total",
			Help:      "Saved-article documents that failed to decode",
		},
	)

	// ClicksTotal counts recorded article clicks.
	ClicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsreader",
			Name:      "clicks_total",
			Help:      "Article clicks recorded",
		},
	)

	// PartialInitializations counts users whose dependent rows failed to create.
	PartialInitializations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsreader",
			Name:      "user_partial_initializations_total",
			Help:      "New users whose topics/tracking rows could not be created",
		},
	)
)

// RecordRequest records one HTTP request.
func RecordRequest(method, route, code string, seconds float64) {
	RequestsTotal.WithLabelValues(method, route, code).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordShelfWrite records the outcome of a saved-article mutation.
func RecordShelfWrite(op, outcome string) {
	ShelfWrites.WithLabelValues(op, outcome).Inc()
}
