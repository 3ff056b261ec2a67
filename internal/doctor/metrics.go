package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the Prometheus metrics of one plugin instance. Build
// machines are short-lived, so metrics are flushed to a node_exporter
// textfile or a Pushgateway instead of being scraped.
//
// Metrics:
//   - gopherdoctor_diagnoses_total{provider,outcome} - diagnoses by outcome ("rendered", "fallback")
//   - gopherdoctor_model_call_duration_seconds{provider} - model acquisition + invocation time
//   - gopherdoctor_last_diagnosis_timestamp_seconds - Unix time of the last diagnosis
type Metrics struct {
	registry *prometheus.Registry

	DiagnosesTotal *prometheus.CounterVec
	ModelDuration  *prometheus.HistogramVec
	LastDiagnosis  prometheus.Gauge
}

// NewMetrics creates the metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		DiagnosesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gopherdoctor_diagnoses_total",
				Help: "Total number of build failure diagnoses by outcome",
			},
			[]string{"provider", "outcome"},
		),
		ModelDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gopherdoctor_model_call_duration_seconds",
				Help:    "Duration of the model call in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"provider"},
		),
		LastDiagnosis: f.NewGauge(prometheus.GaugeOpts{
			Name: "gopherdoctor_last_diagnosis_timestamp_seconds",
			Help: "Unix time of the last diagnosis",
		}),
	}
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observe(provider, outcome string, took time.Duration, at time.Time) {
	m.DiagnosesTotal.WithLabelValues(provider, outcome).Inc()
	m.ModelDuration.WithLabelValues(provider).Observe(took.Seconds())
	m.LastDiagnosis.Set(float64(at.Unix()))
}

// WriteTextfile writes all metrics to path in the text exposition format,
// atomically, for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

// Push sends all metrics to a Prometheus Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
