package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded by the pipeline
const (
	OutcomeRendered         = "rendered"
	OutcomeFallback         = "fallback"
	OutcomeValidationError  = "validation_error"
	OutcomeTranslationError = "translation_error"
	OutcomeRenderError      = "render_error"
)

// Metrics are the pipeline's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests          *prometheus.CounterVec
	translateDuration prometheus.Histogram
	renderDuration    *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archdiagram",
			Name:      "requests_total",
			Help:      "Diagram requests by outcome.",
		}, []string{"outcome", "format"}),
		translateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "archdiagram",
			Name:      "translate_duration_seconds",
			Help:      "Time spent translating descriptions.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 20, 30},
		}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "archdiagram",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering diagrams.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.translateDuration, m.renderDuration)
	}
	return m
}

// ObserveRequest counts a finished request
func (m *Metrics) ObserveRequest(outcome, format string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome, format).Inc()
}

// ObserveTranslate records a translation call duration
func (m *Metrics) ObserveTranslate(d time.Duration) {
	if m == nil {
		return
	}
	m.translateDuration.Observe(d.Seconds())
}

// ObserveRender records a render duration for an engine
func (m *Metrics) ObserveRender(engine string, d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(engine).Observe(d.Seconds())
}

// Requests returns the request counter, for tests and custom exporters
func (m *Metrics) Requests() *prometheus.CounterVec {
	return m.requests
}
