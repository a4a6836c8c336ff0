package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/rakapradana/kasapos/internal/discount"
)

var hundred = decimal.NewFromInt(100)

// Summary aggregates cart totals after a pricing pass.
// Net = Gross - ItemDiscounts - ManualDiscount + Tax.
type Summary struct {
	Gross          decimal.Decimal `json:"gross"`
	ItemDiscounts  decimal.Decimal `json:"itemDiscounts"`
	ManualDiscount decimal.Decimal `json:"manualDiscount"`
	Tax            decimal.Decimal `json:"tax"`
	Net            decimal.Decimal `json:"net"`
}

// Compute sums the lines into a Summary. Aggregates keep raw precision;
// rounding happens once at the reporting boundary via Rounded, not per line,
// so rounding error does not compound across lines.
func Compute(lines []discount.Line) Summary {
	var s Summary
	for _, l := range lines {
		s.Gross = s.Gross.Add(l.Qty.Mul(l.UnitPrice))
		s.ItemDiscounts = s.ItemDiscounts.Add(l.Discount)
		s.Tax = s.Tax.Add(l.Tax)
	}
	s.Net = s.Gross.Sub(s.ItemDiscounts).Sub(s.ManualDiscount).Add(s.Tax)
	return s
}

// Rounded returns a copy with every money field rounded per the policy. Call
// it only when handing totals to a display or receipt collaborator.
func (s Summary) Rounded(mode discount.Mode) Summary {
	return Summary{
		Gross:          discount.Round(s.Gross, mode),
		ItemDiscounts:  discount.Round(s.ItemDiscounts, mode),
		ManualDiscount: discount.Round(s.ManualDiscount, mode),
		Tax:            discount.Round(s.Tax, mode),
		Net:            discount.Round(s.Net, mode),
	}
}

// ManualPolicy bounds cashier-entered discounts.
type ManualPolicy struct {
	MaxPercent          decimal.Decimal
	AllowNegativeTotals bool
}

// Manual is one cart-level discount entered on top of automatic rules.
type Manual struct {
	Kind  discount.Kind
	Value decimal.Decimal
}

// ApplyManual layers a manual discount over the summary. Percent discounts
// are taken against Gross rather than the already-discounted subtotal so the
// cashier-facing math stays predictable. Unless the policy allows negative
// totals, the amount is capped at Gross - ItemDiscounts, which keeps
// Net >= Tax. Cart lines are never touched.
func ApplyManual(s Summary, m Manual, policy ManualPolicy, mode discount.Mode) Summary {
	amount := decimal.Zero
	switch m.Kind {
	case discount.KindPercent:
		pct := m.Value
		if policy.MaxPercent.IsPositive() && pct.GreaterThan(policy.MaxPercent) {
			pct = policy.MaxPercent
		}
		amount = s.Gross.Mul(pct).Div(hundred)
	case discount.KindAmount:
		amount = m.Value
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	amount = discount.Round(amount, mode)
	if !policy.AllowNegativeTotals {
		if ceiling := s.Gross.Sub(s.ItemDiscounts); amount.GreaterThan(ceiling) {
			amount = ceiling
			if amount.IsNegative() {
				amount = decimal.Zero
			}
		}
	}
	s.ManualDiscount = amount
	s.Net = s.Gross.Sub(s.ItemDiscounts).Sub(amount).Add(s.Tax)
	return s
}
