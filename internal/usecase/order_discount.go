package usecase

import (
	"context"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/Victor-armando18/service-rules/internal/interfaces"
	"github.com/sirupsen/logrus"
)

// OrderDiscounter is called after an order is created. The discount is computed
// on the fly; persisting it is up to the caller.
type OrderDiscounter struct {
	decider     interfaces.DiscountDecider
	triggerCode string
	log         logrus.FieldLogger
}

func NewOrderDiscounter(decider interfaces.DiscountDecider, triggerCode string, log logrus.FieldLogger) *OrderDiscounter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OrderDiscounter{decider: decider, triggerCode: triggerCode, log: log}
}

func (d *OrderDiscounter) TriggerCode() string { return d.triggerCode }

// OnOrderCreated returns the discount for a newly created order, or nil when the
// order has no customer or no rule grants one.
func (d *OrderDiscounter) OnOrderCreated(ctx context.Context, order *domain.Order) (*domain.DiscountResult, error) {
	if order == nil || order.Customer == nil {
		return nil, nil
	}
	res, err := d.decider.Decide(ctx, order, d.triggerCode)
	if err != nil {
		return nil, err
	}
	if res != nil {
		d.log.WithFields(logrus.Fields{
			"order":    order.ID,
			"trigger":  d.triggerCode,
			"discount": res.DiscountAmount.StringFixed(2),
		}).Info("discount calculated for order")
	}
	return res, nil
}
