// Package metrics records bootstrap timings and outcomes with Prometheus.
//
// A bootstrap process is short-lived, so metrics are written once to a file in
// the node_exporter textfile format instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/reglet-dev/wasm-bootstrap/domain/entities"
)

const namespace = "bootstrap"

// PrometheusRecorder implements ports.Recorder.
type PrometheusRecorder struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	runs          *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder registered on reg. A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prometheus.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &PrometheusRecorder{
		registry: reg,
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each bootstrap stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Bootstrap stages that ended in an error.",
		}, []string{"stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed bootstrap runs by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.stageDuration, r.stageErrors, r.runs)
	return r
}

// ObserveStage implements ports.Recorder.
func (r *PrometheusRecorder) ObserveStage(stage entities.Stage, elapsed time.Duration, err error) {
	r.stageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	if err != nil {
		r.stageErrors.WithLabelValues(string(stage)).Inc()
	}
}

// ObserveOutcome implements ports.Recorder.
func (r *PrometheusRecorder) ObserveOutcome(outcome entities.Outcome) {
	r.runs.WithLabelValues(string(outcome)).Inc()
}

// WriteTextfile writes all gathered metrics to path atomically.
func (r *PrometheusRecorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
