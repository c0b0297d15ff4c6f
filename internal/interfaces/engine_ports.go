package interfaces

import (
	"context"

	"github.com/Victor-armando18/service-rules/internal/domain"
)

// RuleRepository is the read-only configuration store.
// CandidateRules returns only ENABLED rules of the trigger, fully loaded, and
// fails with domain.ErrUnknownTrigger when no trigger has that code.
type RuleRepository interface {
	TriggerExists(ctx context.Context, code string) (bool, error)
	CandidateRules(ctx context.Context, code string) ([]domain.Rule, error)
}

// RulePackLoader fetches a rule pack from wherever it is kept (disk, object storage).
type RulePackLoader interface {
	Load(ctx context.Context) (*domain.RulePack, error)
}

// LabelResolver maps a subject to the entity whose labels are evaluated.
type LabelResolver interface {
	Resolve(subject domain.Subject) (domain.Subject, domain.LabelSet)
}

type ConditionEvaluator interface {
	Evaluate(condition domain.Condition, labels domain.LabelSet) bool
}

// ActionExecutor computes the effect of one action. It never writes state.
type ActionExecutor interface {
	Execute(ctx context.Context, action domain.Action, subject domain.Subject) *domain.DiscountResult
}

type EngineMetrics interface {
	ObserveEvaluation(mode domain.EvaluationMode, matched bool)
	ObserveUnknownTrigger()
	ObserveAction(actionType domain.ActionType, produced bool)
}

// DiscountDecider answers decision-mode questions for orders.
type DiscountDecider interface {
	Decide(ctx context.Context, order *domain.Order, triggerCode string) (*domain.DiscountResult, error)
}

// ApplicabilityChecker answers applicability-mode questions for prices.
type ApplicabilityChecker interface {
	IsApplicable(ctx context.Context, price *domain.Price, triggerCode string) (bool, error)
}

// EngineFacade is the entry point exposed to the outside world.
type EngineFacade interface {
	DiscountDecider
	ApplicabilityChecker
	ProcessRules(ctx context.Context, subject domain.Subject, triggerCode string) (*domain.Outcome, error)
}
