// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for icefeed.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "icefeed",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of service requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"operation", "status"},
	)

	healthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "icefeed",
			Subsystem: "client",
			Name:      "health_checks_total",
			Help:      "Total number of health checks by reported status",
		},
		[]string{"status"},
	)

	ingestRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "icefeed",
			Subsystem: "client",
			Name:      "ingest_requests_total",
			Help:      "Total number of ingest requests",
		},
		[]string{"status"},
	)

	ingestPayloadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "icefeed",
			Subsystem: "client",
			Name:      "ingest_payload_bytes",
			Help:      "Size of ingest request bodies in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		},
	)

	recordsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "icefeed",
			Subsystem: "client",
			Name:      "records_ingested_total",
			Help:      "Total number of records the service acknowledged",
		},
	)
)

// RecordHealthCheck records the outcome of a health check.
func RecordHealthCheck(healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	healthChecks.WithLabelValues(status).Inc()
}

// RecordIngest records an acknowledged ingest request.
func RecordIngest(payloadBytes int, records uint64, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	ingestRequests.WithLabelValues(status).Inc()
	ingestPayloadBytes.Observe(float64(payloadBytes))
	if success {
		recordsIngested.Add(float64(records))
	}
}

// ObserveRequest records the duration of an operation.
func ObserveRequest(operation, status string, seconds float64) {
	requestDuration.WithLabelValues(operation, status).Observe(seconds)
}
