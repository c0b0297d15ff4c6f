package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewActionDiscount(t *testing.T) {
	cases := []struct {
		name    string
		params  map[string]any
		wantPct string
		wantErr bool
	}{
		{"int from yaml", map[string]any{"percentage": 10, "description": "VIP discount"}, "10", false},
		{"float from json", map[string]any{"percentage": 12.5}, "12.5", false},
		{"string", map[string]any{"percentage": "7.25"}, "7.25", false},
		{"json number", map[string]any{"percentage": json.Number("15")}, "15", false},
		{"missing percentage", map[string]any{"description": "nothing"}, "0", false},
		{"not a number", map[string]any{"percentage": "ten"}, "", true},
		{"wrong type", map[string]any{"percentage": []any{1}}, "", true},
		{"above hundred", map[string]any{"percentage": 150}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAction(1, ActionDiscount, tc.params)
			if tc.wantErr {
				if !errors.Is(a.Err, ErrInvalidActionParams) {
					t.Fatalf("Err = %v, want ErrInvalidActionParams", a.Err)
				}
				if a.Discount != nil {
					t.Error("malformed action must not carry a payload")
				}
				return
			}
			if a.Err != nil {
				t.Fatalf("unexpected error: %v", a.Err)
			}
			if !a.Discount.Percentage.Equal(decimal.RequireFromString(tc.wantPct)) {
				t.Errorf("percentage = %s, want %s", a.Discount.Percentage, tc.wantPct)
			}
		})
	}
}

func TestNewActionOtherTypes(t *testing.T) {
	sc := NewAction(2, ActionStatusChange, map[string]any{"new_status": "CONFIRMED"})
	if sc.Err != nil || sc.StatusChange == nil || sc.StatusChange.NewStatus != "CONFIRMED" {
		t.Fatalf("status change decode: %+v", sc)
	}

	unknown := NewAction(3, ActionType("APPLY_DISCOUNT"), map[string]any{"percentage": 10})
	if unknown.Err != nil || unknown.Discount != nil || unknown.StatusChange != nil {
		t.Errorf("unknown action types keep raw params only: %+v", unknown)
	}
	if unknown.Params["percentage"] != 10 {
		t.Error("raw params must be preserved")
	}
}

func TestDiscountParamsApply(t *testing.T) {
	cases := []struct {
		total, pct            string
		wantAmount, wantFinal string
	}{
		{"200.00", "10", "20.00", "180.00"},
		{"99.99", "15", "15.00", "84.99"},
		{"10.05", "50", "5.02", "5.03"}, // 5.025 rounds half to even
		{"0", "10", "0", "0"},
	}
	for _, tc := range cases {
		p := DiscountParams{Percentage: decimal.RequireFromString(tc.pct), Description: "d"}
		res, ok := p.Apply(decimal.RequireFromString(tc.total))
		if !ok {
			t.Fatalf("%s%% of %s: no result", tc.pct, tc.total)
		}
		if !res.DiscountAmount.Equal(decimal.RequireFromString(tc.wantAmount)) {
			t.Errorf("%s%% of %s: amount = %s, want %s", tc.pct, tc.total, res.DiscountAmount, tc.wantAmount)
		}
		if !res.FinalTotal.Equal(decimal.RequireFromString(tc.wantFinal)) {
			t.Errorf("%s%% of %s: final = %s, want %s", tc.pct, tc.total, res.FinalTotal, tc.wantFinal)
		}
		if !res.OriginalTotal.Equal(decimal.RequireFromString(tc.total)) || res.Description != "d" {
			t.Errorf("unexpected result %+v", res)
		}
	}

	for _, pct := range []string{"0", "-5"} {
		if res, ok := (DiscountParams{Percentage: decimal.RequireFromString(pct)}).Apply(decimal.NewFromInt(100)); ok || res != nil {
			t.Errorf("percentage %s must not produce a discount", pct)
		}
	}
}
