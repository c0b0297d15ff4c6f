package infrastructure

import (
	"strconv"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusMetrics struct {
	evaluations     *prometheus.CounterVec
	unknownTriggers prometheus.Counter
	actions         *prometheus.CounterVec
}

// NewPrometheusMetrics registers the engine collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rules",
			Name:      "evaluations_total",
			Help:      "Rule engine invocations by evaluation mode and whether any rule matched.",
		}, []string{"mode", "matched"}),
		unknownTriggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rules",
			Name:      "unknown_trigger_total",
			Help:      "Invocations with a trigger code that is not configured.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rules",
			Name:      "actions_total",
			Help:      "Executed rule actions by type and whether they produced a result.",
		}, []string{"type", "produced"}),
	}
	reg.MustRegister(m.evaluations, m.unknownTriggers, m.actions)
	return m
}

func (m *PrometheusMetrics) ObserveEvaluation(mode domain.EvaluationMode, matched bool) {
	m.evaluations.WithLabelValues(mode.String(), strconv.FormatBool(matched)).Inc()
}

func (m *PrometheusMetrics) ObserveUnknownTrigger() {
	m.unknownTriggers.Inc()
}

func (m *PrometheusMetrics) ObserveAction(actionType domain.ActionType, produced bool) {
	m.actions.WithLabelValues(actionTypeLabel(actionType), strconv.FormatBool(produced)).Inc()
}

// actionTypeLabel keeps the type label bounded; rule files may carry any type.
func actionTypeLabel(t domain.ActionType) string {
	switch t {
	case domain.ActionDiscount, domain.ActionStatusChange:
		return string(t)
	}
	return "other"
}
