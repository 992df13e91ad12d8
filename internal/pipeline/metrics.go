package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for task detection.
//
// Metrics:
//   - donotmiss_detections_total{path} - detections by path (ai, fallback, skipped)
//   - donotmiss_ai_failures_total{reason} - AI attempts that fell back (unavailable, malformed, other)
//   - donotmiss_tasks_detected_total{path} - normalized tasks produced
//   - donotmiss_detection_duration_seconds{path} - end-to-end detection latency
type Metrics struct {
	DetectionsTotal   *prometheus.CounterVec
	AIFailuresTotal   *prometheus.CounterVec
	TasksTotal        *prometheus.CounterVec
	DetectionDuration *prometheus.HistogramVec
}

// NewMetrics registers the detection metrics with the default registry once
// per process and returns the shared instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			DetectionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "donotmiss_detections_total",
					Help: "Total number of detection requests by extraction path",
				},
				[]string{"path"},
			),

			AIFailuresTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "donotmiss_ai_failures_total",
					Help: "Total number of AI extraction attempts that fell back",
				},
				[]string{"reason"},
			),

			TasksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "donotmiss_tasks_detected_total",
					Help: "Total number of task candidates produced",
				},
				[]string{"path"},
			),

			DetectionDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "donotmiss_detection_duration_seconds",
					Help:    "Duration of task detection in seconds",
					Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
				},
				[]string{"path"},
			),
		}
	})

	return globalMetrics
}
