package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics exposed on /metrics.
var (
	// TrainRunsTotal counts train-and-evaluate runs by model variant and outcome.
	TrainRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idxcast_train_runs_total",
		Help: "Total number of training runs",
	}, []string{"model", "status"})

	// TrainDuration observes wall-clock duration of training runs.
	TrainDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "idxcast_train_duration_seconds",
		Help:    "Duration of training runs in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"model"})

	// ModelAccuracy records the latest test accuracy per pattern and model.
	ModelAccuracy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "idxcast_model_accuracy",
		Help: "Test-set accuracy of the most recent run",
	}, []string{"pattern", "model"})

	// RowsPrepared observes the engineered row count surviving cleanup.
	RowsPrepared = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "idxcast_rows_prepared",
		Help:    "Engineered rows remaining after incomplete-row trimming",
		Buckets: prometheus.ExponentialBuckets(10, 2, 12),
	}, []string{"pattern"})

	// HTTPRequestDuration observes API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "idxcast_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
