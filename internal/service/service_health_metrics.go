package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "envelope_sync"

// healthMetrics are the prometheus instruments fed by the health monitor.
type healthMetrics struct {
	attempts            *prometheus.CounterVec
	duration            prometheus.Histogram
	errors              *prometheus.CounterVec
	consecutiveFailures prometheus.Gauge
}

// newHealthMetrics registers the instruments on reg. A nil reg gets a
// private registry so several monitors can coexist in tests.
func newHealthMetrics(reg prometheus.Registerer) *healthMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &healthMetrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sync_attempts_total",
			Help:      "Sync attempts by type and result",
		}, []string{"type", "result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of finished sync attempts in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sync_errors_total",
			Help:      "Sync failures by diagnostic category",
		}, []string{"category"}),
		consecutiveFailures: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sync_consecutive_failures",
			Help:      "Current run of failed sync attempts",
		}),
	}
}
