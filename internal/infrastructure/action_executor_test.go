package infrastructure

import (
	"context"
	"testing"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRuleActionExecutor(t *testing.T) {
	ctx := context.Background()
	log, hook := test.NewNullLogger()
	x := NewRuleActionExecutor(log)

	customer := &domain.Customer{ID: 1}
	order := &domain.Order{ID: 10, Customer: customer, TotalAmount: decimal.RequireFromString("99.99")}
	discount := domain.NewAction(1, domain.ActionDiscount, map[string]any{"percentage": "15", "description": "Spring"})

	t.Run("discount on order", func(t *testing.T) {
		res := x.Execute(ctx, discount, order)
		if res == nil {
			t.Fatal("expected a discount")
		}
		if !res.DiscountAmount.Equal(decimal.RequireFromString("15.00")) || !res.FinalTotal.Equal(decimal.RequireFromString("84.99")) {
			t.Errorf("discount = %+v", res)
		}
		if !order.TotalAmount.Equal(decimal.RequireFromString("99.99")) {
			t.Error("order total must not change")
		}
	})

	skips := []struct {
		name    string
		action  domain.Action
		subject domain.Subject
		level   logrus.Level
	}{
		{"malformed params", domain.NewAction(2, domain.ActionDiscount, map[string]any{"percentage": "lots"}), order, logrus.WarnLevel},
		{"price subject", discount, &domain.Price{ID: 1}, logrus.InfoLevel},
		{"order without customer", discount, &domain.Order{ID: 2, TotalAmount: decimal.NewFromInt(10)}, logrus.InfoLevel},
		{"zero percentage", domain.NewAction(3, domain.ActionDiscount, map[string]any{"percentage": 0}), order, logrus.InfoLevel},
		{"status change", domain.NewAction(4, domain.ActionStatusChange, map[string]any{"new_status": "CONFIRMED"}), order, logrus.InfoLevel},
		{"unknown type", domain.NewAction(5, "NOTIFY", nil), order, logrus.InfoLevel},
	}
	for _, s := range skips {
		t.Run(s.name, func(t *testing.T) {
			hook.Reset()
			if res := x.Execute(ctx, s.action, s.subject); res != nil {
				t.Errorf("expected no result, got %+v", res)
			}
			entry := hook.LastEntry()
			if entry == nil || entry.Level != s.level {
				t.Errorf("last log entry = %+v, want level %v", entry, s.level)
			}
		})
	}
}
