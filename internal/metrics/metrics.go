package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/alexivanou/cityweather/internal/gateway"
	"github.com/alexivanou/cityweather/internal/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cityweather"

// Metrics holds the application collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	gatewayHits     *prometheus.GaugeVec
	staleDiscards   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go and
// process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		gatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Total number of remote gateway calls",
			},
			[]string{"gateway", "outcome"},
		),
		gatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_request_duration_seconds",
				Help:      "Remote gateway call latency in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"gateway"},
		),
		gatewayHits: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gateway_last_hits",
				Help:      "Hit count reported by the last successful gateway call",
			},
			[]string{"gateway"},
		),
		staleDiscards: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_responses_discarded_total",
				Help:      "Responses dropped because a newer request superseded them",
			},
			[]string{"slot"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP API requests",
			},
			[]string{"route", "status"},
		),
	}
}

// ObserveCall implements gateway.Observer
func (m *Metrics) ObserveCall(_ context.Context, call gateway.Call) {
	m.gatewayRequests.WithLabelValues(call.Gateway, string(call.Outcome)).Inc()
	m.gatewayDuration.WithLabelValues(call.Gateway).Observe(call.Duration.Seconds())
	if call.Outcome == gateway.OutcomeOK {
		m.gatewayHits.WithLabelValues(call.Gateway).Set(float64(call.Hits))
	}
}

// StaleDiscarded counts one dropped response for slot
func (m *Metrics) StaleDiscarded(slot view.Slot) {
	m.staleDiscards.WithLabelValues(string(slot)).Inc()
}

// StaleHook returns a hook for components that only know they dropped a response
func (m *Metrics) StaleHook(slot view.Slot) func() {
	return func() {
		m.StaleDiscarded(slot)
	}
}

// HTTPRequest counts one handled API request
func (m *Metrics) HTTPRequest(route string, status int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
