// Package qmetrics exposes the service's Prometheus counters.
package qmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qwell"

type Metrics struct {
	Registry *prometheus.Registry

	TokenRenewals   *prometheus.CounterVec
	AuthFailures    *prometheus.CounterVec
	MealsRecorded   prometheus.Counter
	MealsRejected   prometheus.Counter
	TotalsClamped   prometheus.Counter
	ClassifierCalls *prometheus.CounterVec
}

// New registers every collector on a private registry, so several instances
// can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		TokenRenewals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_renewals_total",
			Help:      "Login-time token lifecycle transitions by outcome.",
		}, []string{"outcome"}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected bearer tokens by error code.",
		}, []string{"code"}),
		MealsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meals_recorded_total",
			Help:      "Meal entries appended to a daily aggregate.",
		}),
		MealsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meals_rejected_total",
			Help:      "Meal entries refused because the daily cap was reached.",
		}),
		TotalsClamped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_totals_clamped_total",
			Help:      "Aggregate updates where a sum hit its storage bound.",
		}),
		ClassifierCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_calls_total",
			Help:      "Image classification lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TokenRenewals,
		m.AuthFailures,
		m.MealsRecorded,
		m.MealsRejected,
		m.TotalsClamped,
		m.ClassifierCalls,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
