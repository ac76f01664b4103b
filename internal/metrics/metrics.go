// Package metrics holds the Prometheus collectors for both sides of the wire:
// outgoing calls made by the sync client and requests served by the
// development backend.
//
// Collectors are registered on an injected Registerer instead of the global
// default so tests can build as many instances as they like.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/hangang/internal/apperror"
)

const namespace = "hangang"

// Metrics groups every collector used by the module.
type Metrics struct {
	ClientCalls    *prometheus.CounterVec
	ClientDuration *prometheus.HistogramVec

	ServerRequests *prometheus.CounterVec
	ServerDuration *prometheus.HistogramVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClientCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "calls_total",
				Help:      "Backend calls made by the sync client.",
			},
			[]string{"resource", "op", "outcome"},
		),
		ClientDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "call_duration_seconds",
				Help:      "Latency of backend calls made by the sync client.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"resource", "op"},
		),
		ServerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "devserver",
				Name:      "requests_total",
				Help:      "Requests served by the development backend.",
			},
			[]string{"method", "route", "status"},
		),
		ServerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "devserver",
				Name:      "request_duration_seconds",
				Help:      "Latency of requests served by the development backend.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// NewNop returns collectors registered on a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveCall records one client call. The outcome label is derived from the
// error taxonomy so dashboards can split network failures from server ones.
func (m *Metrics) ObserveCall(resource, op string, start time.Time, err error) {
	m.ClientCalls.WithLabelValues(resource, op, Outcome(err)).Inc()
	m.ClientDuration.WithLabelValues(resource, op).Observe(time.Since(start).Seconds())
}

// ObserveRequest records one request served by the development backend.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.ServerRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.ServerDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Outcome maps an error onto a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperror.ErrNetwork):
		return "network_error"
	case errors.Is(err, apperror.ErrServer), errors.Is(err, apperror.ErrAuth):
		return "server_error"
	case errors.Is(err, apperror.ErrDecode):
		return "decode_error"
	case errors.Is(err, apperror.ErrInvalidURL):
		return "invalid_url"
	default:
		return "error"
	}
}

// Handler exposes the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
