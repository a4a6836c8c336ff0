package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rakapradana/kasapos/internal/discount"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleLines() []discount.Line {
	return []discount.Line{
		{Qty: dec("2"), UnitPrice: dec("100"), Discount: dec("20"), Tax: dec("10")},
		{Qty: dec("1.5"), UnitPrice: dec("40"), Discount: dec("0"), Tax: dec("3")},
	}
}

func TestCompute(t *testing.T) {
	s := Compute(sampleLines())
	if !s.Gross.Equal(dec("260")) {
		t.Fatalf("gross = %s, want 260", s.Gross)
	}
	if !s.ItemDiscounts.Equal(dec("20")) {
		t.Fatalf("item discounts = %s, want 20", s.ItemDiscounts)
	}
	if !s.Tax.Equal(dec("13")) {
		t.Fatalf("tax = %s, want 13", s.Tax)
	}
	if !s.Net.Equal(dec("253")) {
		t.Fatalf("net = %s, want 253", s.Net)
	}
}

func TestManualPercentAgainstGross(t *testing.T) {
	s := Compute(sampleLines())
	got := ApplyManual(s, Manual{Kind: discount.KindPercent, Value: dec("10")}, ManualPolicy{}, discount.ModeNearestTenth)
	// 10% of gross 260, not of the discounted subtotal 240.
	if !got.ManualDiscount.Equal(dec("26")) {
		t.Fatalf("manual discount = %s, want 26", got.ManualDiscount)
	}
	if !got.Net.Equal(dec("227")) {
		t.Fatalf("net = %s, want 227", got.Net)
	}
}

func TestManualAmountCappedAtRemainingValue(t *testing.T) {
	s := Compute(sampleLines())
	got := ApplyManual(s, Manual{Kind: discount.KindAmount, Value: dec("10000")}, ManualPolicy{}, discount.ModeNearestUnit)
	if !got.ManualDiscount.Equal(dec("240")) {
		t.Fatalf("manual discount = %s, want cap at gross-itemDiscounts=240", got.ManualDiscount)
	}
	// With the default policy net never drops below tax.
	if got.Net.LessThan(got.Tax) {
		t.Fatalf("net %s fell below tax %s", got.Net, got.Tax)
	}
}

func TestManualNegativeTotalsAllowedByPolicy(t *testing.T) {
	s := Compute(sampleLines())
	policy := ManualPolicy{AllowNegativeTotals: true}
	got := ApplyManual(s, Manual{Kind: discount.KindAmount, Value: dec("300")}, policy, discount.ModeNearestUnit)
	if !got.ManualDiscount.Equal(dec("300")) {
		t.Fatalf("manual discount = %s, want uncapped 300", got.ManualDiscount)
	}
	if !got.Net.Equal(dec("-47")) {
		t.Fatalf("net = %s, want -47", got.Net)
	}
}

func TestManualPercentClampedToPolicyMax(t *testing.T) {
	s := Compute(sampleLines())
	policy := ManualPolicy{MaxPercent: dec("15")}
	got := ApplyManual(s, Manual{Kind: discount.KindPercent, Value: dec("50")}, policy, discount.ModeNearestUnit)
	if !got.ManualDiscount.Equal(dec("39")) {
		t.Fatalf("manual discount = %s, want 15%% of 260 = 39", got.ManualDiscount)
	}
}

func TestManualNegativeRequestIgnored(t *testing.T) {
	s := Compute(sampleLines())
	got := ApplyManual(s, Manual{Kind: discount.KindAmount, Value: dec("-5")}, ManualPolicy{}, discount.ModeNearestUnit)
	if !got.ManualDiscount.IsZero() {
		t.Fatalf("negative manual request should apply nothing, got %s", got.ManualDiscount)
	}
}

func TestRoundedOnlyAtReportingBoundary(t *testing.T) {
	lines := []discount.Line{
		{Qty: dec("1"), UnitPrice: dec("10.26"), Discount: dec("0.13")},
		{Qty: dec("1"), UnitPrice: dec("10.26"), Discount: dec("0.13")},
	}
	s := Compute(lines)
	// Raw aggregates keep full precision.
	if !s.ItemDiscounts.Equal(dec("0.26")) {
		t.Fatalf("raw item discounts = %s, want 0.26", s.ItemDiscounts)
	}
	r := s.Rounded(discount.ModeNearestTenth)
	if !r.ItemDiscounts.Equal(dec("0.3")) {
		t.Fatalf("rounded item discounts = %s, want 0.3", r.ItemDiscounts)
	}
	if !r.Gross.Equal(dec("20.5")) {
		t.Fatalf("rounded gross = %s, want 20.5", r.Gross)
	}
}
