package import_feature

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts import outcomes. A nil *Metrics records nothing.
type Metrics struct {
	started            *prometheus.CounterVec
	finished           *prometheus.CounterVec
	pollErrors         prometheus.Counter
	validationFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		started: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imports",
			Name:      "started_total",
			Help:      "Import jobs triggered on the backend.",
		}, []string{"entity"}),
		finished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imports",
			Name:      "finished_total",
			Help:      "Import jobs that reached a terminal status.",
		}, []string{"entity", "status"}),
		pollErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "imports",
			Name:      "poll_errors_total",
			Help:      "Failed status, warning or log fetches while polling.",
		}),
		validationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imports",
			Name:      "validation_failures_total",
			Help:      "Commits rejected by mandatory field validation.",
		}, []string{"entity"}),
	}
}

func (m *Metrics) importStarted(entity string) {
	if m != nil {
		m.started.WithLabelValues(entity).Inc()
	}
}

func (m *Metrics) importFinished(entity string, status JobStatus) {
	if m != nil {
		m.finished.WithLabelValues(entity, string(status)).Inc()
	}
}

func (m *Metrics) pollError() {
	if m != nil {
		m.pollErrors.Inc()
	}
}

func (m *Metrics) validationFailed(entity string) {
	if m != nil {
		m.validationFailures.WithLabelValues(entity).Inc()
	}
}
