package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/Victor-armando18/service-rules/internal/interfaces"
	"github.com/sirupsen/logrus"
)

// Execution log phases.
const (
	PhaseGate       = "gate"
	PhaseConditions = "conditions"
	PhaseActions    = "actions"
)

type EngineService struct {
	repo      interfaces.RuleRepository
	resolver  interfaces.LabelResolver
	evaluator interfaces.ConditionEvaluator
	executor  interfaces.ActionExecutor
	metrics   interfaces.EngineMetrics
	log       logrus.FieldLogger
}

type Option func(*EngineService)

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *EngineService) { e.log = l }
}

func WithMetrics(m interfaces.EngineMetrics) Option {
	return func(e *EngineService) { e.metrics = m }
}

func NewEngineService(
	repo interfaces.RuleRepository,
	resolver interfaces.LabelResolver,
	evaluator interfaces.ConditionEvaluator,
	executor interfaces.ActionExecutor,
	opts ...Option,
) *EngineService {
	e := &EngineService{
		repo:      repo,
		resolver:  resolver,
		evaluator: evaluator,
		executor:  executor,
		metrics:   noopMetrics{},
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessRules evaluates every enabled rule of triggerCode against subject.
// Prices are evaluated in applicability mode, everything else in decision mode.
// Only configuration store failures are returned as errors.
func (e *EngineService) ProcessRules(ctx context.Context, subject domain.Subject, triggerCode string) (*domain.Outcome, error) {
	kind := domain.KindOf(subject)
	mode := kind.Mode()
	outcome := &domain.Outcome{
		Mode:         mode,
		TriggerCode:  triggerCode,
		MatchedRules: []int64{},
		ExecutionLog: []domain.ExecutionStep{},
	}
	log := e.log.WithFields(logrus.Fields{
		"trigger":      triggerCode,
		"subject_kind": kind.String(),
		"mode":         mode.String(),
	})

	exists, err := e.repo.TriggerExists(ctx, triggerCode)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup trigger %q: %w", domain.ErrRuleExecutionFailed, triggerCode, err)
	}
	if !exists {
		e.unknownTrigger(log)
		return outcome, nil
	}

	_, labels := e.resolver.Resolve(subject)

	rules, err := e.repo.CandidateRules(ctx, triggerCode)
	if errors.Is(err, domain.ErrUnknownTrigger) {
		// trigger removed between the two reads
		e.unknownTrigger(log)
		return outcome, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load rules for %q: %w", domain.ErrRuleExecutionFailed, triggerCode, err)
	}

	for _, rule := range rules {
		if !rule.Enabled() {
			continue
		}
		if !rule.PassesGate(labels) {
			outcome.ExecutionLog = append(outcome.ExecutionLog, step(PhaseGate, rule, "no gate label carried by subject"))
			continue
		}

		if mode == domain.ModeApplicability {
			if e.anySatisfied(rule, labels) {
				outcome.Applicable = true
				outcome.MatchedRules = append(outcome.MatchedRules, rule.ID)
				outcome.ExecutionLog = append(outcome.ExecutionLog, step(PhaseConditions, rule, "satisfied"))
				log.WithField("rule", rule.Name).Debug("price applicable")
				e.metrics.ObserveEvaluation(mode, true)
				return outcome, nil
			}
			outcome.ExecutionLog = append(outcome.ExecutionLog, step(PhaseConditions, rule, "no condition matched"))
			continue
		}

		if !e.allSatisfied(rule, labels) {
			outcome.ExecutionLog = append(outcome.ExecutionLog, step(PhaseConditions, rule, "condition not met"))
			continue
		}
		outcome.MatchedRules = append(outcome.MatchedRules, rule.ID)
		outcome.ExecutionLog = append(outcome.ExecutionLog, step(PhaseConditions, rule, "satisfied"))

		for _, action := range rule.Actions {
			res := e.executor.Execute(ctx, action, subject)
			e.metrics.ObserveAction(action.Type, res != nil)
			if res == nil {
				continue
			}
			// last discount wins, discounts are not combined
			outcome.Discount = res
			outcome.ExecutionLog = append(outcome.ExecutionLog,
				step(PhaseActions, rule, fmt.Sprintf("%s %s%% -> %s", action.Type, res.Percentage, res.FinalTotal)))
		}
	}

	matched := len(outcome.MatchedRules) > 0
	e.metrics.ObserveEvaluation(mode, matched)
	log.WithField("matched_rules", len(outcome.MatchedRules)).Debug("rules processed")
	return outcome, nil
}

// Decide runs decision mode for an order and returns the discount to apply, if any.
func (e *EngineService) Decide(ctx context.Context, order *domain.Order, triggerCode string) (*domain.DiscountResult, error) {
	var subject domain.Subject
	if order != nil {
		subject = order
	}
	out, err := e.ProcessRules(ctx, subject, triggerCode)
	if err != nil {
		return nil, err
	}
	return out.Discount, nil
}

// IsApplicable runs applicability mode for a price.
func (e *EngineService) IsApplicable(ctx context.Context, price *domain.Price, triggerCode string) (bool, error) {
	if price == nil {
		return false, nil
	}
	out, err := e.ProcessRules(ctx, price, triggerCode)
	if err != nil {
		return false, err
	}
	return out.Applicable, nil
}

func (e *EngineService) anySatisfied(rule domain.Rule, labels domain.LabelSet) bool {
	if len(rule.Conditions) == 0 {
		return true
	}
	for _, c := range rule.Conditions {
		if e.evaluator.Evaluate(c, labels) {
			return true
		}
	}
	return false
}

func (e *EngineService) allSatisfied(rule domain.Rule, labels domain.LabelSet) bool {
	for _, c := range rule.Conditions {
		if !e.evaluator.Evaluate(c, labels) {
			return false
		}
	}
	return true
}

func (e *EngineService) unknownTrigger(log logrus.FieldLogger) {
	log.Warn("rule trigger does not exist, no rules apply")
	e.metrics.ObserveUnknownTrigger()
}

func step(phase string, rule domain.Rule, msg string) domain.ExecutionStep {
	return domain.ExecutionStep{Phase: phase, RuleID: rule.ID, RuleName: rule.Name, Message: msg}
}

type noopMetrics struct{}

func (noopMetrics) ObserveEvaluation(domain.EvaluationMode, bool) {}
func (noopMetrics) ObserveUnknownTrigger()                        {}
func (noopMetrics) ObserveAction(domain.ActionType, bool)         {}
