// Package metrics exposes Prometheus collectors for upload cycles.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zinc-sig/packhost/internal/publish"
)

// Metrics records upload cycle outcomes
type Metrics struct {
	cycles         *prometheus.CounterVec
	uploadDuration prometheus.Histogram
	pushes         prometheus.Counter
}

// MustNewMetrics constructs and registers the collectors with reg.
// Registration errors panic, like the promauto helpers.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	cycles := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packhost",
			Subsystem: "publish",
			Name:      "cycles_total",
			Help:      "Upload cycles by outcome.",
		},
		[]string{"outcome", "strategy"},
	)
	uploadDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "packhost",
			Subsystem: "publish",
			Name:      "upload_duration_seconds",
			Help:      "Time from scheduling an upload to its completion.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
	pushes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "packhost",
			Subsystem: "publish",
			Name:      "client_pushes_total",
			Help:      "Pack URLs pushed to connected clients by broadcasts.",
		},
	)

	reg.MustRegister(cycles, uploadDuration, pushes)

	return &Metrics{
		cycles:         cycles,
		uploadDuration: uploadDuration,
		pushes:         pushes,
	}
}

// ObserveCycle implements publish.Observer
func (m *Metrics) ObserveCycle(result publish.CycleResult) {
	strategy := ""
	if result.Outcome != publish.OutcomeFailed {
		strategy = result.Strategy.String()
		m.uploadDuration.Observe(result.Duration.Seconds())
	}
	m.cycles.WithLabelValues(string(result.Outcome), strategy).Inc()
	m.pushes.Add(float64(result.Pushed))
}
