package discount

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(productID, categoryID uuid.UUID, qty, unitPrice, refPrice string) Line {
	return Line{
		ProductID:      productID,
		CategoryID:     categoryID,
		Qty:            dec(qty),
		UnitPrice:      dec(unitPrice),
		ReferencePrice: dec(refPrice),
	}
}

func TestCumulativeCapWithinPool(t *testing.T) {
	rule := activeRule("ten off first three", 1, TargetProduct, prodA)
	rule.Value = dec("10")
	rule.Gate = Gate{Mode: GateCap, Qty: dec("3")}

	res, err := Apply([]Line{line(prodA, catX, "2.5", "100", "100")}, []Rule{rule}, ModeNearestTenth)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Lines[0].Discount; !got.Equal(dec("25")) {
		t.Fatalf("discount = %s, want 25", got)
	}
	if got := res.Lines[0].Total; !got.Equal(dec("225")) {
		t.Fatalf("total = %s, want 225", got)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestCumulativeCapExhausted(t *testing.T) {
	rule := activeRule("ten off first three", 1, TargetProduct, prodA)
	rule.Value = dec("10")
	rule.Gate = Gate{Mode: GateCap, Qty: dec("3")}

	res, err := Apply([]Line{line(prodA, catX, "4", "100", "100")}, []Rule{rule}, ModeNearestTenth)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Lines[0].Discount; !got.Equal(dec("30")) {
		t.Fatalf("discount = %s, want 30 (capped)", got)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Cap reached") {
		t.Fatalf("expected cap warning, got %v", res.Warnings)
	}
	if res.Applied[0].RemainingCap == nil || !res.Applied[0].RemainingCap.IsZero() {
		t.Fatalf("expected remaining cap 0, got %v", res.Applied[0].RemainingCap)
	}
}

func TestCumulativeCapSharedAcrossLines(t *testing.T) {
	rule := activeRule("ten off first three", 1, TargetProduct, prodA)
	rule.Value = dec("10")
	rule.Gate = Gate{Mode: GateCap, Qty: dec("3")}
	lines := []Line{
		line(prodA, catX, "2", "100", "100"),
		line(prodA, catX, "2", "100", "100"),
		line(prodA, catX, "2", "100", "100"),
	}
	res, err := Apply(lines, []Rule{rule}, ModeNearestTenth)
	if err != nil {
		t.Fatal(err)
	}
	// Total discounted quantity across lines never exceeds the pool.
	total := decimal.Zero
	for _, l := range res.Lines {
		total = total.Add(l.Discount)
	}
	if !total.Equal(dec("30")) {
		t.Fatalf("total discount = %s, want 30", total)
	}
	if !res.Lines[0].Discount.Equal(dec("20")) || !res.Lines[1].Discount.Equal(dec("10")) {
		t.Fatalf("per-line split = %s/%s, want 20/10", res.Lines[0].Discount, res.Lines[1].Discount)
	}
	if !res.Lines[2].Discount.IsZero() {
		t.Fatalf("third line should get nothing, got %s", res.Lines[2].Discount)
	}
}

func TestUnlimitedModeHasNoPool(t *testing.T) {
	rule := activeRule("ten off", 1, TargetProduct, prodA)
	rule.Value = dec("10")
	lines := []Line{
		line(prodA, catX, "50", "100", "100"),
		line(prodA, catX, "50", "100", "100"),
	}
	res, err := Apply(lines, []Rule{rule}, ModeNearestUnit)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Lines[0].Discount.Equal(dec("500")) || !res.Lines[1].Discount.Equal(dec("500")) {
		t.Fatalf("unlimited rule should discount every unit, got %s/%s",
			res.Lines[0].Discount, res.Lines[1].Discount)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestThresholdAllOrNothing(t *testing.T) {
	rule := activeRule("bulk deal", 1, TargetProduct, prodA)
	rule.Value = dec("10")
	rule.Gate = Gate{Mode: GateThreshold, Qty: dec("5")}

	below, err := Apply([]Line{line(prodA, catX, "4", "100", "100")}, []Rule{rule}, ModeNearestUnit)
	if err != nil {
		t.Fatal(err)
	}
	if !below.Lines[0].Discount.IsZero() {
		t.Fatalf("line below threshold must get zero, got %s", below.Lines[0].Discount)
	}

	above, err := Apply([]Line{line(prodA, catX, "6", "100", "100")}, []Rule{rule}, ModeNearestUnit)
	if err != nil {
		t.Fatal(err)
	}
	// Full quantity, not just the excess over the threshold.
	if !above.Lines[0].Discount.Equal(dec("60")) {
		t.Fatalf("qualifying line discount = %s, want 60", above.Lines[0].Discount)
	}
}

func TestPercentUsesReferencePrice(t *testing.T) {
	rule := activeRule("category promo", 1, TargetCategory, catX)
	rule.Kind = KindPercent
	rule.Value = dec("5")

	retail, err := Apply([]Line{line(prodB, catX, "1", "200", "200")}, []Rule{rule}, ModeNearestTenth)
	if err != nil {
		t.Fatal(err)
	}
	wholesale, err := Apply([]Line{line(prodB, catX, "1", "150", "200")}, []Rule{rule}, ModeNearestTenth)
	if err != nil {
		t.Fatal(err)
	}
	if !retail.Lines[0].Discount.Equal(dec("10")) {
		t.Fatalf("discount = %s, want 10", retail.Lines[0].Discount)
	}
	// Switching price tier must not change a percent discount.
	if !wholesale.Lines[0].Discount.Equal(retail.Lines[0].Discount) {
		t.Fatalf("tier change moved the discount: %s vs %s",
			wholesale.Lines[0].Discount, retail.Lines[0].Discount)
	}
}

func TestDiscountNeverExceedsReferenceValue(t *testing.T) {
	rule := activeRule("overshooting", 1, TargetProduct, prodA)
	rule.Value = dec("500")
	res, err := Apply([]Line{line(prodA, catX, "2", "100", "100")}, []Rule{rule}, ModeNearestUnit)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Lines[0].Discount.Equal(dec("200")) {
		t.Fatalf("discount = %s, want cap at reference value 200", res.Lines[0].Discount)
	}
	if res.Lines[0].Total.IsNegative() {
		t.Fatalf("total went negative: %s", res.Lines[0].Total)
	}
}

func TestPriorityOrderAndDeterminism(t *testing.T) {
	early := activeRule("applies first", 1, TargetProduct, prodA)
	early.Value = dec("10")
	early.Gate = Gate{Mode: GateCap, Qty: dec("2")}
	late := activeRule("applies second", 5, TargetProduct, prodA)
	late.Value = dec("1")

	lines := []Line{line(prodA, catX, "3", "100", "100")}
	rules := SortByPriority([]Rule{late, early})
	first, err := Apply(lines, rules, ModeNearestTenth)
	if err != nil {
		t.Fatal(err)
	}
	if first.Applied[0].RuleName != "applies first" || first.Applied[1].RuleName != "applies second" {
		t.Fatalf("application order wrong: %q then %q",
			first.Applied[0].RuleName, first.Applied[1].RuleName)
	}
	// Same inputs, reordered rule array with identical priorities resolved by
	// the selector: output must be identical.
	again, err := Apply(lines, SortByPriority([]Rule{early, late}), ModeNearestTenth)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, again) {
		t.Fatal("reordering input rules changed the output")
	}
}

func TestRepricingIsIdempotent(t *testing.T) {
	capRule := activeRule("capped", 1, TargetProduct, prodA)
	capRule.Value = dec("10")
	capRule.Gate = Gate{Mode: GateCap, Qty: dec("3")}
	pctRule := activeRule("category pct", 2, TargetCategory, catX)
	pctRule.Kind = KindPercent
	pctRule.Value = dec("5")
	rules := []Rule{capRule, pctRule}

	lines := []Line{line(prodA, catX, "4", "100", "120")}
	once, err := Apply(lines, rules, ModeNearestHalf)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Apply(once.Lines, rules, ModeNearestHalf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(once.Lines, twice.Lines) {
		t.Fatal("second pass over already-priced lines changed the result")
	}
}

func TestEmptyRuleSetLeavesLinesAlone(t *testing.T) {
	res, err := Apply([]Line{line(prodA, catX, "2", "100", "100")}, nil, ModeNearestUnit)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Lines[0].Discount.IsZero() {
		t.Fatalf("discount = %s, want 0", res.Lines[0].Discount)
	}
	if !res.Lines[0].Total.Equal(dec("200")) {
		t.Fatalf("total = %s, want 200", res.Lines[0].Total)
	}
}

func TestNegativeQuantityRejected(t *testing.T) {
	_, err := Apply([]Line{line(prodA, catX, "-1", "100", "100")}, nil, ModeNearestUnit)
	if !errors.Is(err, ErrInvalidLine) {
		t.Fatalf("expected ErrInvalidLine, got %v", err)
	}
}

func TestMissingReferencePriceFallsBack(t *testing.T) {
	rule := activeRule("pct", 1, TargetProduct, prodA)
	rule.Kind = KindPercent
	rule.Value = dec("10")
	l := line(prodA, catX, "1", "50", "0")
	res, err := Apply([]Line{l}, []Rule{rule}, ModeNearestTenth)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Lines[0].Discount.Equal(dec("5")) {
		t.Fatalf("discount = %s, want 5 from unit price fallback", res.Lines[0].Discount)
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "reference price missing") {
		t.Fatalf("expected a reference-price warning, got %v", res.Warnings)
	}
}

func TestMalformedRuleSkippedNotFatal(t *testing.T) {
	bad := activeRule("bad kind", 1, TargetProduct, prodA)
	bad.Kind = Kind("mystery")
	good := activeRule("good", 2, TargetProduct, prodA)
	good.Value = dec("10")

	res, err := Apply([]Line{line(prodA, catX, "1", "100", "100")}, []Rule{bad, good}, ModeNearestUnit)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Lines[0].Discount.Equal(dec("10")) {
		t.Fatalf("good rule should still apply, discount = %s", res.Lines[0].Discount)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "skipping rule") {
		t.Fatalf("expected skip warning, got %v", res.Warnings)
	}
}

func TestContributionRounding(t *testing.T) {
	rule := activeRule("pct", 1, TargetProduct, prodA)
	rule.Kind = KindPercent
	rule.Value = dec("3")
	// 3% of 99.90 = 2.997 -> 3.0 under NEAREST_HALF.
	res, err := Apply([]Line{line(prodA, catX, "1", "99.90", "99.90")}, []Rule{rule}, ModeNearestHalf)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Lines[0].Discount.Equal(dec("3")) {
		t.Fatalf("discount = %s, want 3", res.Lines[0].Discount)
	}
}
