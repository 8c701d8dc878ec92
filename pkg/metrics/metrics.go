// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// PipelineRunsTotal tracks pipeline invocations by terminal source path.
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total pipeline runs by source path",
		},
		[]string{"source"},
	)

	// PipelineDuration tracks the duration of a full pipeline run.
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	// DatasetRecords tracks the size of the most recent reconciled dataset.
	DatasetRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataset_records",
			Help: "Records in the most recent reconciled dataset",
		},
		[]string{"source"},
	)

	// SourceRowsRead tracks rows read from each upstream source.
	SourceRowsRead = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "source_rows_read",
			Help: "Rows read from an upstream source on the last run",
		},
		[]string{"source"},
	)

	// DatasetFallbackRate tracks the fallback rate of the latest dataset.
	DatasetFallbackRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_fallback_rate",
			Help: "Fallback rate of the most recent reconciled dataset",
		},
	)

	// DatasetAbandonmentRate tracks the abandonment rate of the latest dataset.
	DatasetAbandonmentRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_abandonment_rate",
			Help: "Abandonment rate of the most recent reconciled dataset",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordPipelineRun records metrics for one pipeline invocation.
func RecordPipelineRun(source string, records int, duration float64) {
	PipelineRunsTotal.WithLabelValues(source).Inc()
	PipelineDuration.WithLabelValues(source).Observe(duration)
	DatasetRecords.WithLabelValues(source).Set(float64(records))
}
