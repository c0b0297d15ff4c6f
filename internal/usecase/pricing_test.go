package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Victor-armando18/service-rules/internal/domain"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestPricingWindow_TriggerCode(t *testing.T) {
	w := DefaultPricingWindow()
	cases := []struct {
		year  int
		agent bool
		want  string
		ok    bool
	}{
		{2026, false, "pricing_trigger_2026_2027", true},
		{2030, false, "pricing_trigger_2030_2031", true},
		{2028, true, "pricing_trigger_2028_2029_Agent", true},
		{2025, false, "", false},
		{2031, true, "", false},
	}
	for _, c := range cases {
		got, ok := w.TriggerCode(c.year, c.agent)
		if got != c.want || ok != c.ok {
			t.Errorf("TriggerCode(%d, %v) = %q, %v; want %q, %v", c.year, c.agent, got, ok, c.want, c.ok)
		}
	}
}

type stubChecker struct {
	applicable map[int64]bool
	err        error
	codes      []string
}

func (s *stubChecker) IsApplicable(ctx context.Context, price *domain.Price, code string) (bool, error) {
	s.codes = append(s.codes, code)
	if s.err != nil {
		return false, s.err
	}
	return s.applicable[price.ID], nil
}

func date(year int) *time.Time {
	d := time.Date(year, time.June, 20, 0, 0, 0, 0, time.UTC)
	return &d
}

func priceIDs(prices []*domain.Price) []int64 {
	ids := make([]int64, 0, len(prices))
	for _, p := range prices {
		ids = append(ids, p.ID)
	}
	return ids
}

func samePrices(got []*domain.Price, want ...int64) bool {
	ids := priceIDs(got)
	if len(ids) != len(want) {
		return false
	}
	for i := range ids {
		if ids[i] != want[i] {
			return false
		}
	}
	return true
}

func TestPriceFilter(t *testing.T) {
	ctx := context.Background()
	log, _ := test.NewNullLogger()
	prices := []*domain.Price{
		{ID: 1, IsActive: true},
		{ID: 2, IsActive: false},
		{ID: 3, IsActive: true},
		nil,
	}

	t.Run("no wedding date keeps active prices", func(t *testing.T) {
		checker := &stubChecker{}
		f := NewPriceFilter(checker, DefaultPricingWindow(), log)
		got, err := f.Filter(ctx, prices, PriceQuery{})
		if err != nil || !samePrices(got, 1, 3) {
			t.Errorf("got %v, %v", priceIDs(got), err)
		}
		if len(checker.codes) != 0 {
			t.Errorf("engine consulted: %v", checker.codes)
		}
	})

	t.Run("year outside window keeps active prices", func(t *testing.T) {
		checker := &stubChecker{}
		f := NewPriceFilter(checker, DefaultPricingWindow(), log)
		got, err := f.Filter(ctx, prices, PriceQuery{WeddingDate: date(2035)})
		if err != nil || !samePrices(got, 1, 3) || len(checker.codes) != 0 {
			t.Errorf("got %v, %v (codes %v)", priceIDs(got), err, checker.codes)
		}
	})

	t.Run("customer wedding day wins over query date", func(t *testing.T) {
		checker := &stubChecker{applicable: map[int64]bool{3: true}}
		f := NewPriceFilter(checker, DefaultPricingWindow(), log)
		q := PriceQuery{
			Customer:    &domain.Customer{ID: 1, WeddingDay: date(2027)},
			WeddingDate: date(2026),
		}
		got, err := f.Filter(ctx, prices, q)
		if err != nil || !samePrices(got, 3) {
			t.Errorf("got %v, %v", priceIDs(got), err)
		}
		for _, code := range checker.codes {
			if code != "pricing_trigger_2027_2028" {
				t.Errorf("unexpected trigger %q", code)
			}
		}
	})

	t.Run("agent orders use the agent trigger", func(t *testing.T) {
		checker := &stubChecker{applicable: map[int64]bool{1: true, 3: true}}
		f := NewPriceFilter(checker, DefaultPricingWindow(), log)
		got, err := f.Filter(ctx, prices, PriceQuery{WeddingDate: date(2026), Agent: true})
		if err != nil || !samePrices(got, 1, 3) {
			t.Errorf("got %v, %v", priceIDs(got), err)
		}
		if len(checker.codes) != 2 || checker.codes[0] != "pricing_trigger_2026_2027_Agent" {
			t.Errorf("codes = %v", checker.codes)
		}
	})

	t.Run("engine errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		f := NewPriceFilter(&stubChecker{err: boom}, DefaultPricingWindow(), log)
		if _, err := f.Filter(ctx, prices, PriceQuery{WeddingDate: date(2026)}); !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestPriceFilter_WithEngine(t *testing.T) {
	svc, _ := newTestEngine(t, weddingPack())
	log, _ := test.NewNullLogger()
	f := NewPriceFilter(svc, DefaultPricingWindow(), log)

	prices := []*domain.Price{
		{ID: 1, IsActive: true, Labels: []domain.Label{year2026, standard}},
		{ID: 2, IsActive: true, Labels: []domain.Label{year2027}},
	}
	got, err := f.Filter(context.Background(), prices, PriceQuery{WeddingDate: date(2026)})
	if err != nil || !samePrices(got, 1) {
		t.Errorf("got %v, %v", priceIDs(got), err)
	}
}
