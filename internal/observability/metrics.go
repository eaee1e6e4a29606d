package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	rosterChangesTotal  *prometheus.CounterVec
	rosterEventsTotal   *prometheus.CounterVec
	rosterStreamsActive prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		rosterChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_roster_changes_total",
			Help: "Signup and unregister attempts by outcome.",
		}, []string{"action", "outcome"})

		rosterEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_roster_events_total",
			Help: "Roster events delivered to local subscribers by origin.",
		}, []string{"origin"})

		rosterStreamsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "activity_roster_streams_active",
			Help: "Number of open roster websocket streams.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			rosterChangesTotal,
			rosterEventsTotal,
			rosterStreamsActive,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// RosterChanges exposes the counter for roster mutation attempts.
func RosterChanges() *prometheus.CounterVec {
	RegisterMetrics()
	return rosterChangesTotal
}

// RosterEvents exposes the counter for roster events fanned out to subscribers.
func RosterEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return rosterEventsTotal
}

// RosterStreamsActive exposes the gauge of connected roster streams.
func RosterStreamsActive() prometheus.Gauge {
	RegisterMetrics()
	return rosterStreamsActive
}
