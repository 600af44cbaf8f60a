// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Dataset metrics
	DatasetsUploaded prometheus.Counter
	RecordsLoaded    prometheus.Counter
	LoadErrors       *prometheus.CounterVec

	// KPI metrics
	KPIComputations     *prometheus.CounterVec
	KPIComputeDuration  prometheus.Histogram
	SnapshotErrors      prometheus.Counter
	ReportsGenerated    *prometheus.CounterVec
	HighGapAlertsRaised prometheus.Counter

	// Stream metrics
	StreamSessions prometheus.Gauge
	StreamMessages *prometheus.CounterVec

	// Event metrics
	EventsPublished *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulUpload prometheus.Gauge
	UptimeSeconds        prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered
// on reg. A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "forecast_oversight"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Dataset metrics
		DatasetsUploaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "datasets",
			Name:      "uploaded_total",
			Help:      "Total number of datasets uploaded",
		}),
		RecordsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "datasets",
			Name:      "records_loaded_total",
			Help:      "Total number of forecast records loaded",
		}),
		LoadErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "datasets",
			Name:      "load_errors_total",
			Help:      "Total number of rejected uploads by error kind",
		}, []string{"kind"}),

		// KPI metrics
		KPIComputations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kpi",
			Name:      "computations_total",
			Help:      "Total number of KPI computations by status",
		}, []string{"status"}),
		KPIComputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kpi",
			Name:      "compute_duration_seconds",
			Help:      "KPI computation duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		SnapshotErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kpi",
			Name:      "snapshot_errors_total",
			Help:      "Total number of KPI snapshots that could not be stored",
		}),
		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kpi",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated by format",
		}, []string{"format"}),
		HighGapAlertsRaised: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kpi",
			Name:      "high_gap_alerts_total",
			Help:      "Total number of views in which the high gap alert fired",
		}),

		// Stream metrics
		StreamSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "active_sessions",
			Help:      "Current number of open filter stream sessions",
		}),
		StreamMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "messages_total",
			Help:      "Total number of filter stream messages by status",
		}, []string{"status"}),

		// Event metrics
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of events published by topic and status",
		}, []string{"topic", "status"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulUpload: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_upload_timestamp",
			Help:      "Unix timestamp of last successful dataset upload",
		}),
		UptimeSeconds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordDatasetUploaded records a successful upload of n records.
func RecordDatasetUploaded(records int, unixSeconds float64) {
	DefaultMetrics.DatasetsUploaded.Inc()
	DefaultMetrics.RecordsLoaded.Add(float64(records))
	DefaultMetrics.LastSuccessfulUpload.Set(unixSeconds)
}

// RecordLoadError records a rejected upload. kind is parse_error or validation_error.
func RecordLoadError(kind string) {
	DefaultMetrics.LoadErrors.WithLabelValues(kind).Inc()
}

// RecordKPIComputation records a KPI computation and its duration.
func RecordKPIComputation(status string, seconds float64) {
	DefaultMetrics.KPIComputations.WithLabelValues(status).Inc()
	DefaultMetrics.KPIComputeDuration.Observe(seconds)
}

// RecordSnapshotError records a snapshot that could not be stored.
func RecordSnapshotError() {
	DefaultMetrics.SnapshotErrors.Inc()
}

// RecordReport records a generated report.
func RecordReport(format string) {
	DefaultMetrics.ReportsGenerated.WithLabelValues(format).Inc()
}

// RecordHighGapAlert records a view in which the high gap alert fired.
func RecordHighGapAlert() {
	DefaultMetrics.HighGapAlertsRaised.Inc()
}

// StreamOpened increments the active stream sessions gauge.
func StreamOpened() {
	DefaultMetrics.StreamSessions.Inc()
}

// StreamClosed decrements the active stream sessions gauge.
func StreamClosed() {
	DefaultMetrics.StreamSessions.Dec()
}

// RecordStreamMessage records one handled stream message.
func RecordStreamMessage(status string) {
	DefaultMetrics.StreamMessages.WithLabelValues(status).Inc()
}

// RecordEventPublished records an event publish attempt.
func RecordEventPublished(topic string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.EventsPublished.WithLabelValues(topic, status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// AddUptime adds elapsed seconds to the uptime counter.
func AddUptime(seconds float64) {
	DefaultMetrics.UptimeSeconds.Add(seconds)
}
