package infrastructure

import (
	"bytes"
	"encoding/json"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/diegoholiveira/jsonlogic/v3"
	"github.com/sirupsen/logrus"
)

// JsonLogicConditionEvaluator compiles label conditions to JsonLogic and runs
// them against {"labels": [<label keys>]}.
//
//	HAS_LABEL -> {"in": ["label-<id>", {"var": "labels"}]}
//	NOT_LABEL -> {"!": [{"in": [...]}]}
type JsonLogicConditionEvaluator struct {
	log logrus.FieldLogger
}

func NewJsonLogicConditionEvaluator(log logrus.FieldLogger) *JsonLogicConditionEvaluator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &JsonLogicConditionEvaluator{log: log}
}

func (j *JsonLogicConditionEvaluator) Evaluate(condition domain.Condition, labels domain.LabelSet) bool {
	logic, ok := ConditionLogic(condition)
	if !ok {
		return false
	}

	ruleJSON, err := json.Marshal(logic)
	if err != nil {
		return false
	}
	dataJSON, err := json.Marshal(map[string]interface{}{"labels": labels.Keys()})
	if err != nil {
		return false
	}

	var resultBuffer bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(ruleJSON), bytes.NewReader(dataJSON), &resultBuffer); err != nil {
		j.log.WithError(err).WithField("condition", condition.ID).Warn("condition evaluation failed")
		return false
	}

	var matched bool
	if err := json.Unmarshal(bytes.TrimSpace(resultBuffer.Bytes()), &matched); err != nil {
		return false
	}
	return matched
}

// ConditionLogic returns the JsonLogic form of a condition; false for unknown operators.
func ConditionLogic(condition domain.Condition) (map[string]interface{}, bool) {
	in := map[string]interface{}{
		"in": []interface{}{condition.Label.Key(), map[string]interface{}{"var": "labels"}},
	}
	switch condition.Operator {
	case domain.OpHasLabel:
		return in, true
	case domain.OpNotLabel:
		return map[string]interface{}{"!": []interface{}{in}}, true
	}
	return nil, false
}
