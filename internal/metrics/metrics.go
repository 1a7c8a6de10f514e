// Package metrics exposes Prometheus instrumentation for the playback core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the projection mapper.
type Metrics struct {
	registry               *prometheus.Registry
	triggersTotal          prometheus.Counter
	crossfadesStartedTotal prometheus.Counter
	framesRenderedTotal    prometheus.Counter
	compositeFallbackTotal prometheus.Counter
	errorsTotal            *prometheus.CounterVec
	systemState            prometheus.Gauge
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	triggersTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stairlight_triggers_total",
		Help: "Total number of trigger messages handled (external and synthesized)",
	})
	crossfadesStartedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stairlight_crossfades_started_total",
		Help: "Total number of crossfade transitions started",
	})
	framesRenderedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stairlight_frames_rendered_total",
		Help: "Total number of frames composited and presented",
	})
	compositeFallbackTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stairlight_composite_fallbacks_total",
		Help: "Total number of frames passed through unwarped after a compositor failure",
	})
	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stairlight_errors_total",
		Help: "Total number of error events reported, by severity",
	}, []string{"severity"})
	systemState := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stairlight_system_state",
		Help: "Current system health state (0=normal 1=degraded 2=safe_mode 3=emergency)",
	})

	registry.MustRegister(
		triggersTotal,
		crossfadesStartedTotal,
		framesRenderedTotal,
		compositeFallbackTotal,
		errorsTotal,
		systemState,
	)

	return &Metrics{
		registry:               registry,
		triggersTotal:          triggersTotal,
		crossfadesStartedTotal: crossfadesStartedTotal,
		framesRenderedTotal:    framesRenderedTotal,
		compositeFallbackTotal: compositeFallbackTotal,
		errorsTotal:            errorsTotal,
		systemState:            systemState,
	}
}

// IncTriggers increments the handled-trigger counter.
func (m *Metrics) IncTriggers() {
	if m != nil {
		m.triggersTotal.Inc()
	}
}

// IncCrossfades increments the started-crossfade counter.
func (m *Metrics) IncCrossfades() {
	if m != nil {
		m.crossfadesStartedTotal.Inc()
	}
}

// IncFrames increments the rendered-frame counter.
func (m *Metrics) IncFrames() {
	if m != nil {
		m.framesRenderedTotal.Inc()
	}
}

// IncCompositeFallbacks increments the compositor pass-through counter.
func (m *Metrics) IncCompositeFallbacks() {
	if m != nil {
		m.compositeFallbackTotal.Inc()
	}
}

// IncErrors increments the error counter for a severity label.
func (m *Metrics) IncErrors(severity string) {
	if m != nil {
		m.errorsTotal.WithLabelValues(severity).Inc()
	}
}

// SetSystemState records the current health state ordinal.
func (m *Metrics) SetSystemState(state int) {
	if m != nil {
		m.systemState.Set(float64(state))
	}
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
