package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics owns its registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	invocations   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	requestErrors *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adapter_invocations_total",
			Help: "Model invocations by selector and outcome",
		}, []string{"selector", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "adapter_invocation_duration_ms",
			Help:    "Latency of model invocations in milliseconds",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"selector"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adapter_request_errors_total",
			Help: "Requests answered with the error envelope, by error kind",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.invocations, m.latency, m.requestErrors)
	return m
}

// ObserveInvocation records one finished invocation.
func (m *Metrics) ObserveInvocation(selector string, elapsed time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.invocations.WithLabelValues(selector, outcome).Inc()
	m.latency.WithLabelValues(selector).Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) IncRequestError(kind string) {
	m.requestErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
