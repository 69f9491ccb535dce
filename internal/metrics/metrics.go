// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the pipeline counters behind one registry so tests can
// build isolated instances.
type Metrics struct {
	ReportsGenerated  prometheus.Counter
	NarrativeFailures prometheus.Counter
	AnalyzeDuration   prometheus.Histogram

	reg *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		ReportsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adpulse_reports_generated_total",
			Help: "Completed analysis runs.",
		}),
		NarrativeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adpulse_narrative_failures_total",
			Help: "Runs that degraded to numeric-only output.",
		}),
		AnalyzeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "adpulse_analyze_duration_seconds",
			Help:    "Wall time of the validate/aggregate/select step.",
			Buckets: prometheus.DefBuckets,
		}),
		reg: prometheus.NewRegistry(),
	}
	m.reg.MustRegister(
		m.ReportsGenerated,
		m.NarrativeFailures,
		m.AnalyzeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAnalyze records one analysis duration.
func (m *Metrics) ObserveAnalyze(d time.Duration) {
	m.AnalyzeDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
