package infrastructure

import (
	"encoding/json"
	"testing"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestJsonLogicConditionEvaluator(t *testing.T) {
	log, _ := test.NewNullLogger()
	ev := NewJsonLogicConditionEvaluator(log)

	vip := domain.Label{ID: 1, Name: "VIP"}
	blocked := domain.Label{ID: 2, Name: "Blocked"}
	// label 12 must not be confused with label 1 or 2
	twelve := domain.Label{ID: 12, Name: "Twelve"}

	cases := []struct {
		name   string
		cond   domain.Condition
		labels domain.LabelSet
		want   bool
	}{
		{"has present", domain.Condition{Operator: domain.OpHasLabel, Label: vip}, domain.NewLabelSet(vip), true},
		{"has absent", domain.Condition{Operator: domain.OpHasLabel, Label: vip}, domain.NewLabelSet(blocked), false},
		{"has on empty set", domain.Condition{Operator: domain.OpHasLabel, Label: vip}, domain.NewLabelSet(), false},
		{"not present", domain.Condition{Operator: domain.OpNotLabel, Label: blocked}, domain.NewLabelSet(vip, blocked), false},
		{"not absent", domain.Condition{Operator: domain.OpNotLabel, Label: blocked}, domain.NewLabelSet(vip), true},
		{"not on empty set", domain.Condition{Operator: domain.OpNotLabel, Label: blocked}, domain.NewLabelSet(), true},
		{"no substring match", domain.Condition{Operator: domain.OpHasLabel, Label: vip}, domain.NewLabelSet(twelve), false},
		{"unknown operator", domain.Condition{Operator: "HAS_ANY", Label: vip}, domain.NewLabelSet(vip), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ev.Evaluate(c.cond, c.labels); got != c.want {
				t.Errorf("Evaluate = %v, want %v", got, c.want)
			}
		})
	}
}

func TestConditionLogic(t *testing.T) {
	logic, ok := ConditionLogic(domain.Condition{Operator: domain.OpNotLabel, Label: domain.Label{ID: 4}})
	if !ok {
		t.Fatal("expected logic for NOT_LABEL")
	}
	got, err := json.Marshal(logic)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"!":[{"in":["label-4",{"var":"labels"}]}]}`
	if string(got) != want {
		t.Errorf("logic = %s, want %s", got, want)
	}
}
