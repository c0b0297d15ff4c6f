package infrastructure

import (
	"testing"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.ObserveEvaluation(domain.ModeDecision, true)
	m.ObserveEvaluation(domain.ModeDecision, true)
	m.ObserveEvaluation(domain.ModeApplicability, false)
	m.ObserveUnknownTrigger()
	m.ObserveAction(domain.ActionDiscount, true)
	m.ObserveAction(domain.ActionStatusChange, false)

	if got := testutil.ToFloat64(m.evaluations.WithLabelValues("decision", "true")); got != 2 {
		t.Errorf("decision hits = %v", got)
	}
	if got := testutil.ToFloat64(m.evaluations.WithLabelValues("applicability", "false")); got != 1 {
		t.Errorf("applicability misses = %v", got)
	}
	if got := testutil.ToFloat64(m.unknownTriggers); got != 1 {
		t.Errorf("unknown triggers = %v", got)
	}
	if got := testutil.ToFloat64(m.actions.WithLabelValues("STATUS_CHANGE", "false")); got != 1 {
		t.Errorf("status change actions = %v", got)
	}
	if n, err := testutil.GatherAndCount(reg); err != nil || n != 5 {
		t.Errorf("series = %d, %v", n, err)
	}
}

func TestPrometheusMetrics_UnknownActionTypes(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.ObserveAction("NOTIFY", false)
	m.ObserveAction("EMAIL", false)
	m.ObserveAction(domain.ActionType(""), false)

	if n := testutil.CollectAndCount(m.actions); n != 1 {
		t.Fatalf("action series = %d, want 1", n)
	}
	if got := testutil.ToFloat64(m.actions.WithLabelValues("other", "false")); got != 3 {
		t.Errorf("other actions = %v", got)
	}
}
