package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/Victor-armando18/service-rules/internal/interfaces"
	"github.com/sirupsen/logrus"
)

// PricingWindow maps wedding years to pricing trigger codes. Years outside
// [FirstYear, LastYear] have no trigger.
type PricingWindow struct {
	FirstYear   int
	LastYear    int
	AgentSuffix string
}

func DefaultPricingWindow() PricingWindow {
	return PricingWindow{FirstYear: 2026, LastYear: 2030, AgentSuffix: "_Agent"}
}

// TriggerCode returns e.g. pricing_trigger_2026_2027 or pricing_trigger_2026_2027_Agent.
func (w PricingWindow) TriggerCode(weddingYear int, agent bool) (string, bool) {
	if weddingYear < w.FirstYear || weddingYear > w.LastYear {
		return "", false
	}
	code := fmt.Sprintf("pricing_trigger_%d_%d", weddingYear, weddingYear+1)
	if agent {
		code += w.AgentSuffix
	}
	return code, true
}

// PriceQuery carries what the caller knows about who is looking at the prices.
// WeddingDate is used when there is no customer (agent-created orders).
type PriceQuery struct {
	Customer    *domain.Customer
	WeddingDate *time.Time
	Agent       bool
}

func (q PriceQuery) weddingDate() *time.Time {
	if q.Customer != nil && q.Customer.WeddingDay != nil {
		return q.Customer.WeddingDay
	}
	return q.WeddingDate
}

// PriceFilter keeps the prices visible for a customer's wedding year.
type PriceFilter struct {
	checker interfaces.ApplicabilityChecker
	window  PricingWindow
	log     logrus.FieldLogger
}

func NewPriceFilter(checker interfaces.ApplicabilityChecker, window PricingWindow, log logrus.FieldLogger) *PriceFilter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PriceFilter{checker: checker, window: window, log: log}
}

// Filter drops inactive prices. Without a wedding date, or without a trigger
// for its year, every active price is kept; otherwise only prices the engine
// finds applicable are.
func (f *PriceFilter) Filter(ctx context.Context, prices []*domain.Price, q PriceQuery) ([]*domain.Price, error) {
	active := make([]*domain.Price, 0, len(prices))
	for _, p := range prices {
		if p != nil && p.IsActive {
			active = append(active, p)
		}
	}

	date := q.weddingDate()
	if date == nil {
		return active, nil
	}
	code, ok := f.window.TriggerCode(date.Year(), q.Agent)
	if !ok {
		f.log.WithField("wedding_year", date.Year()).Debug("no pricing trigger for wedding year, keeping all active prices")
		return active, nil
	}

	applicable := make([]*domain.Price, 0, len(active))
	for _, p := range active {
		ok, err := f.checker.IsApplicable(ctx, p, code)
		if err != nil {
			return nil, err
		}
		if ok {
			applicable = append(applicable, p)
		}
	}
	f.log.WithFields(logrus.Fields{
		"trigger":    code,
		"active":     len(active),
		"applicable": len(applicable),
	}).Debug("prices filtered")
	return applicable, nil
}
