package observability

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the prometheus-backed Hooks implementation. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	conflicts *prometheus.CounterVec
	replays   *prometheus.CounterVec
}

var _ Hooks = (*Metrics)(nil)

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpkernel",
			Name:      "mutations_total",
			Help:      "Mutations by namespace, verb and outcome.",
		}, []string{"namespace", "verb", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "erpkernel",
			Name:      "mutation_duration_seconds",
			Help:      "End-to-end mutate latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"namespace", "verb"}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpkernel",
			Name:      "version_conflicts_total",
			Help:      "Rejected CONFLICT_VERSION mutations.",
		}, []string{"namespace"}),
		replays: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpkernel",
			Name:      "idempotency_replays_total",
			Help:      "Creates answered from the idempotency store.",
		}, []string{"namespace"}),
	}
}

func (m *Metrics) ObserveMutation(namespace, verb, status string, dur time.Duration) {
	if m == nil {
		return
	}
	namespace, verb = label(namespace), label(verb)
	m.mutations.WithLabelValues(namespace, verb, label(status)).Inc()
	m.latency.WithLabelValues(namespace, verb).Observe(dur.Seconds())
}

func (m *Metrics) IncConflict(namespace string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(label(namespace)).Inc()
}

func (m *Metrics) IncReplay(namespace string) {
	if m == nil {
		return
	}
	m.replays.WithLabelValues(label(namespace)).Inc()
}

// Registry exposes the underlying registry (tests, extra collectors).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// label keeps unparseable caller input from exploding label cardinality.
func label(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	if len(v) > 64 {
		return "other"
	}
	return v
}
