package saga

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts step outcomes, finished sagas and the reconciliation gaps left by failed sagas
type Metrics struct {
	steps          *prometheus.CounterVec
	sagas          *prometheus.CounterVec
	reconciliation *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provisioner_saga_steps_total",
			Help: "Saga steps executed, by step name and final outcome.",
		}, []string{"step", "outcome"}),
		sagas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provisioner_sagas_total",
			Help: "Finished saga instances, by saga name and status.",
		}, []string{"name", "status"}),
		reconciliation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provisioner_reconciliation_required_total",
			Help: "Sagas that left the identity provider and the record store out of sync.",
		}, []string{"name"}),
	}

	if registerer == nil {
		return m, nil
	}

	for _, collector := range []prometheus.Collector{m.steps, m.sagas, m.reconciliation} {
		if err := registerer.Register(collector); err != nil {
			return nil, errors.Wrap(err, "registering saga metrics")
		}
	}

	return m, nil
}

func (m *Metrics) stepFinished(step, outcome string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) sagaFinished(name string, status Status) {
	if m == nil {
		return
	}
	m.sagas.WithLabelValues(name, status.String()).Inc()
}

func (m *Metrics) reconciliationRequired(name string) {
	if m == nil {
		return
	}
	m.reconciliation.WithLabelValues(name).Inc()
}
