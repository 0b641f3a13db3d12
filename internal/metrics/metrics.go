// Package metrics exposes Prometheus instrumentation for balance mutations and
// the local group mirror.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	mutations        *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	failedSteps      *prometheus.CounterVec
	mirrorReloads    prometheus.Counter
}

// New builds the collectors on a fresh registry together with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bankroll",
			Name:      "balance_mutations_total",
			Help:      "Balance mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		mutationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bankroll",
			Name:      "balance_mutation_duration_seconds",
			Help:      "Latency of the balance mutation write chain.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		failedSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bankroll",
			Name:      "balance_mutation_failed_steps_total",
			Help:      "Write chain steps that failed, leaving earlier steps committed.",
		}, []string{"operation", "step"}),
		mirrorReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bankroll",
			Name:      "mirror_reloads_total",
			Help:      "Group views reloaded from the store.",
		}),
	}
	reg.MustRegister(
		m.mutations,
		m.mutationDuration,
		m.failedSteps,
		m.mirrorReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveMutation records one finished mutation.
func (m *Metrics) ObserveMutation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
	}
	m.mutations.WithLabelValues(operation, outcome).Inc()
	m.mutationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// FailedStep records the step at which a mutation chain stopped.
func (m *Metrics) FailedStep(operation, step string) {
	if m == nil {
		return
	}
	m.failedSteps.WithLabelValues(operation, step).Inc()
}

// MirrorReload records a group view reload.
func (m *Metrics) MirrorReload() {
	if m == nil {
		return
	}
	m.mirrorReloads.Inc()
}

// Gatherer returns the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
