package infrastructure

import (
	"context"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/sirupsen/logrus"
)

// RuleActionExecutor computes action effects on the fly. Only DISCOUNT produces
// a result; the other action types are logged and skipped.
type RuleActionExecutor struct {
	log logrus.FieldLogger
}

func NewRuleActionExecutor(log logrus.FieldLogger) *RuleActionExecutor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RuleActionExecutor{log: log}
}

func (x *RuleActionExecutor) Execute(ctx context.Context, action domain.Action, subject domain.Subject) *domain.DiscountResult {
	log := x.log.WithFields(logrus.Fields{
		"action":       action.Type,
		"action_id":    action.ID,
		"subject_kind": domain.KindOf(subject).String(),
	})

	switch action.Type {
	case domain.ActionDiscount:
		return x.discount(log, action, subject)
	default:
		log.WithField("params", action.Params).Info("no executor for action type, skipping")
		return nil
	}
}

func (x *RuleActionExecutor) discount(log logrus.FieldLogger, action domain.Action, subject domain.Subject) *domain.DiscountResult {
	if action.Err != nil || action.Discount == nil {
		log.WithError(action.Err).Warn("discount action has malformed parameters, skipping")
		return nil
	}
	order, ok := subject.(*domain.Order)
	if !ok || order == nil {
		log.Info("discount only applies to orders, skipping")
		return nil
	}
	if order.Customer == nil {
		log.WithField("order", order.ID).Info("order has no customer, skipping discount")
		return nil
	}

	res, ok := action.Discount.Apply(order.TotalAmount)
	if !ok {
		log.WithField("percentage", action.Discount.Percentage.String()).Info("non-positive discount percentage, skipping")
		return nil
	}
	log.WithFields(logrus.Fields{
		"order":    order.ID,
		"discount": res.DiscountAmount.StringFixed(2),
		"total":    res.FinalTotal.StringFixed(2),
	}).Info("discount computed")
	return res
}
