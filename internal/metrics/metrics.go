package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipper_pipeline_jobs_total",
			Help: "Total number of pipeline runs by terminal outcome",
		},
		[]string{"outcome"},
	)

	StageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipper_pipeline_stage_total",
			Help: "Total number of stage executions by outcome",
		},
		[]string{"stage", "outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clipper_pipeline_stage_duration_seconds",
			Help:    "Duration of external toolchain invocations per stage",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)
)

// HTTP metrics for the serving layer
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipper_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clipper_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
