// Package metrics exposes Prometheus counters for payload builds and CRUD
// actions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnwards/backoffice/internal/crud"
	"github.com/johnwards/backoffice/internal/payload"
)

// Metrics owns a dedicated registry so tests can create independent
// instances.
type Metrics struct {
	registry *prometheus.Registry
	builds   *prometheus.CounterVec
	actions  *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "payload_builds_total",
			Help:      "Payload builds by entity, mode and result.",
		}, []string{"entity", "mode", "result"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "crud_actions_total",
			Help:      "CRUD actions by entity, action and status.",
		}, []string{"entity", "action", "status"}),
	}
	m.registry.MustRegister(
		m.builds,
		m.actions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveBuild counts one payload build. It matches payload.Observer.
func (m *Metrics) ObserveBuild(entity string, mode payload.Mode, ok bool) {
	result := "invalid"
	if ok {
		result = "ok"
	}
	m.builds.WithLabelValues(entity, mode.String(), result).Inc()
}

// ObserveAction counts one CRUD action. It matches crud.Observer.
func (m *Metrics) ObserveAction(entity, action string, status crud.Status) {
	m.actions.WithLabelValues(entity, action, string(status)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
