package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
)

const v1 = `
version: v1
labels:
  - {id: 1, name: VIP, kind: CUSTOMER}
  - {id: 3, name: Year2026, kind: PRICE}
triggers:
  - {id: 1, code: discount_vip}
  - {id: 2, code: pricing_trigger_2026_2027}
rules:
  - id: 1
    name: VIP 10%
    status: ENABLED
    trigger: discount_vip
    labels: [VIP]
    conditions:
      - {entity: CUSTOMER, operator: HAS_LABEL, label: VIP}
    actions:
      - {type: DISCOUNT, params: {percentage: 10}}
  - id: 2
    name: 2026 prices
    status: ENABLED
    trigger: pricing_trigger_2026_2027
    conditions:
      - {entity: PRICE, operator: HAS_LABEL, label: Year2026}
`

func TestEngine_LoadDecideReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "v1_rules.yaml")
	if err := os.WriteFile(path, []byte(v1), 0o600); err != nil {
		t.Fatal(err)
	}
	log, _ := test.NewNullLogger()

	eng, err := Load(ctx, NewVersionLoader(dir, "1", log), WithLogger(log))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	vip, _ := eng.Pack().LabelByName("VIP")
	order := &Order{ID: 1, Customer: &Customer{ID: 1, Labels: []Label{vip}}, TotalAmount: decimal.NewFromInt(300)}

	res, err := eng.Decide(ctx, order, "discount_vip")
	if err != nil || res == nil || !res.FinalTotal.Equal(decimal.NewFromInt(270)) {
		t.Fatalf("Decide = %+v, %v", res, err)
	}

	year, _ := eng.Pack().LabelByName("Year2026")
	ok, err := eng.IsApplicable(ctx, &Price{ID: 1, IsActive: true, Labels: []Label{year}}, "pricing_trigger_2026_2027")
	if err != nil || !ok {
		t.Errorf("IsApplicable = %v, %v", ok, err)
	}

	if err := os.WriteFile(path, []byte("version: v1\ntriggers: [{id: 1, code: discount_vip}]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := eng.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if res, _ := eng.Decide(ctx, order, "discount_vip"); res != nil {
		t.Errorf("rules survived reload: %+v", res)
	}

	if err := os.WriteFile(path, []byte("not: [valid"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := eng.Reload(ctx); err == nil {
		t.Error("expected reload error")
	}
	if _, ok := eng.Pack().Trigger("discount_vip"); !ok {
		t.Error("failed reload must keep the previous pack")
	}
}

func TestParseRulePack(t *testing.T) {
	pack, err := ParseRulePack("rules.yaml", []byte(v1), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(pack.Rules) != 2 {
		t.Errorf("rules = %d", len(pack.Rules))
	}
}
