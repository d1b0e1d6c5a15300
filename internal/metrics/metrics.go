// Package metrics exposes Prometheus collectors for the lucky draw
// service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	drawsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "luckydraw",
			Subsystem: "draws",
			Name:      "created_total",
			Help:      "Total number of draws created.",
		},
	)

	entriesRequested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "luckydraw",
			Subsystem: "entries",
			Name:      "requested_total",
			Help:      "Total number of entries accepted (randomness requested).",
		},
	)

	prizesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "luckydraw",
			Subsystem: "prizes",
			Name:      "awarded_total",
			Help:      "Total number of resolved entries by outcome kind.",
		},
		[]string{"kind"}, // tier, default, none
	)

	payoutFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "luckydraw",
			Subsystem: "prizes",
			Name:      "payout_failures_total",
			Help:      "Payouts rejected by the solvency check.",
		},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "luckydraw",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "luckydraw",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "luckydraw",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		drawsCreated,
		entriesRequested,
		prizesAwarded,
		payoutFailures,
		httpInFlight,
		httpRequests,
		httpDuration,
		collectors.NewGoCollector(),
	)
}

// DrawCreated increments the draw creation counter.
func DrawCreated() { drawsCreated.Inc() }

// EntryRequested increments the accepted-entry counter.
func EntryRequested() { entriesRequested.Inc() }

// PrizeAwarded increments the resolution counter for an outcome kind.
func PrizeAwarded(kind string) { prizesAwarded.WithLabelValues(kind).Inc() }

// PayoutFailure increments the solvency rejection counter.
func PayoutFailure() { payoutFailures.Inc() }

// IncrementInFlight tracks an HTTP request entering the handler chain.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight tracks an HTTP request leaving the handler chain.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one handled HTTP request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
