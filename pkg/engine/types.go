package engine

import (
	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/Victor-armando18/service-rules/internal/interfaces"
)

type (
	Label            = domain.Label
	LabelKind        = domain.LabelKind
	LabelSet         = domain.LabelSet
	Subject          = domain.Subject
	Customer         = domain.Customer
	Professional     = domain.Professional
	Template         = domain.Template
	Price            = domain.Price
	Order            = domain.Order
	DiscountResult   = domain.DiscountResult
	ExecutionStep    = domain.ExecutionStep
	Outcome          = domain.Outcome
	RulePack         = domain.RulePack
	RulePackDocument = domain.RulePackDocument
	EvaluationMode   = domain.EvaluationMode

	RuleRepository = interfaces.RuleRepository
	RulePackLoader = interfaces.RulePackLoader
	EngineMetrics  = interfaces.EngineMetrics
)

const (
	ModeDecision      = domain.ModeDecision
	ModeApplicability = domain.ModeApplicability
)

var (
	ErrUnknownTrigger      = domain.ErrUnknownTrigger
	ErrRuleExecutionFailed = domain.ErrRuleExecutionFailed
	ErrInvalidRulePack     = domain.ErrInvalidRulePack
)

// NewLabelSet builds a label set keyed by label ID.
func NewLabelSet(labels ...Label) LabelSet {
	return domain.NewLabelSet(labels...)
}
