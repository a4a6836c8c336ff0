package discount

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one cart position during a pricing pass. Qty is a decimal so
// weighed goods can carry fractional quantities. UnitPrice is the price
// currently charged, which may already reflect a tier such as wholesale;
// ReferencePrice is always the undiscounted retail price and is the base for
// percentage discounts regardless of the active tier.
type Line struct {
	ProductID      uuid.UUID       `json:"productId"`
	CategoryID     uuid.UUID       `json:"categoryId"`
	SKU            string          `json:"sku,omitempty"`
	Qty            decimal.Decimal `json:"qty"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	ReferencePrice decimal.Decimal `json:"referencePrice"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	Applied        []AppliedRule   `json:"appliedRules,omitempty"`
}

// AppliedRule records one rule contribution on a line for audit and display.
// RemainingCap is only present for cumulative-cap rules and reflects the
// shared pool state right after this contribution.
type AppliedRule struct {
	RuleID       uuid.UUID        `json:"ruleId"`
	RuleName     string           `json:"ruleName"`
	Amount       decimal.Decimal  `json:"amount"`
	RemainingCap *decimal.Decimal `json:"remainingCap,omitempty"`
}

// recalc restores the line invariant total = unitPrice*qty - discount + tax.
// It runs after every rule contribution, never before.
func (l *Line) recalc() {
	l.Total = l.UnitPrice.Mul(l.Qty).Sub(l.Discount).Add(l.Tax)
}
