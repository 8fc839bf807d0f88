// Package metrics exposes wizard and HTTP metrics through Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	// Submissions by step and outcome ("accepted", "rejected").
	Submissions *prometheus.CounterVec

	// Lookup failures by query ("countries", "cities").
	LookupFailures *prometheus.CounterVec

	SlotWriteFailures prometheus.Counter
	Confirmations     prometheus.Counter
	ActiveSessions    prometheus.Gauge

	RequestLatency *prometheus.HistogramVec
}

var _ wizard.Observer = (*Metrics)(nil)

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "formwizard_step_submissions_total",
			Help: "Step submissions by step and outcome",
		}, []string{"step", "outcome"}),
		LookupFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "formwizard_lookup_failures_total",
			Help: "Failed country and city lookups",
		}, []string{"query"}),
		SlotWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "formwizard_slot_write_failures_total",
			Help: "Accepted submissions whose slot write failed",
		}),
		Confirmations: factory.NewCounter(prometheus.CounterOpts{
			Name: "formwizard_confirmations_total",
			Help: "Confirmed records",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "formwizard_active_sessions",
			Help: "Wizard sessions held in memory",
		}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formwizard_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method", "status"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) StepSubmitted(step steps.ID, accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.Submissions.WithLabelValues(string(step), outcome).Inc()
}

func (m *Metrics) LookupFailed(query string) {
	if m != nil {
		m.LookupFailures.WithLabelValues(query).Inc()
	}
}

func (m *Metrics) Confirmed() {
	if m != nil {
		m.Confirmations.Inc()
	}
}

// SlotWriteFailed matches store.WithWriteObserver.
func (m *Metrics) SlotWriteFailed(error) {
	if m != nil {
		m.SlotWriteFailures.Inc()
	}
}

// SetActiveSessions records the number of live sessions.
func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, method, status).Observe(d.Seconds())
	}
}
