// Package telemetry holds the Prometheus collectors shared across the service.
//
// All collectors are registered against the default registry and exposed by
// the /metrics route. HTTP metrics use the gin route template (c.FullPath())
// as the path label so dataset and user ids do not inflate cardinality.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template and status code.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Ingestion metrics.
//
// UploadsTotal counts upload attempts by outcome: "stored", or the error code
// that rejected the file (UNSUPPORTED_FORMAT, PAYLOAD_TOO_LARGE, ...).
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheet_uploads_total",
			Help: "Total number of spreadsheet uploads, by outcome.",
		},
		[]string{"outcome"},
	)

	UploadRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sheet_upload_rows",
			Help:    "Number of records per stored dataset.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

// AuditWritesTotal counts background audit persistence attempts by result
// ("stored" or "failed").
var AuditWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_writes_total",
		Help: "Total number of audit log writes, by result.",
	},
	[]string{"result"},
)

// StatsCacheTotal counts stats cache lookups by result ("hit", "miss", "error").
var StatsCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stats_cache_requests_total",
		Help: "Total number of admin stats cache lookups, by result.",
	},
	[]string{"result"},
)
