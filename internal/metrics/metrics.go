// Package metrics exposes Prometheus collectors for price resolution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionsTotal counts finished resolutions by outcome: database, model or failed
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricelens_resolutions_total",
			Help: "Total number of price resolutions by outcome",
		},
		[]string{"source"},
	)

	HistoryLookupErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricelens_history_lookup_errors_total",
			Help: "Historical store queries that failed and fell through to the model",
		},
	)

	MarketplaceSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricelens_marketplace_search_duration_seconds",
			Help:    "Duration of marketplace searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"domain", "outcome"}, // outcome: hit, empty, error
	)

	MarketplaceResultsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricelens_marketplace_results_dropped_total",
			Help: "Search results excluded from ranking",
		},
		[]string{"reason"}, // unparseable, blacklisted
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricelens_http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pricelens_search_circuit_breaker_state",
			Help: "Search circuit breaker state per domain (0=closed, 1=half-open, 2=open)",
		},
		[]string{"domain"},
	)
)

// RecordResolution increments the resolution counter for one outcome
func RecordResolution(outcome string) {
	ResolutionsTotal.WithLabelValues(outcome).Inc()
}

// RecordSearch observes one marketplace search
func RecordSearch(domain, outcome string, elapsed time.Duration) {
	if domain == "" {
		domain = "unrestricted"
	}
	MarketplaceSearchDuration.WithLabelValues(domain, outcome).Observe(elapsed.Seconds())
}

// RecordDropped counts search results excluded from ranking
func RecordDropped(reason string, n int) {
	if n > 0 {
		MarketplaceResultsDropped.WithLabelValues(reason).Add(float64(n))
	}
}
