package discount

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Target identifies the domain a rule's TargetID refers to.
type Target string

const (
	// TargetProduct matches cart lines by product identifier.
	TargetProduct Target = "product"
	// TargetCategory matches cart lines by category identifier.
	TargetCategory Target = "category"
)

// Kind distinguishes fixed-amount rules from percentage rules.
type Kind string

const (
	// KindAmount discounts a fixed currency amount per unit.
	KindAmount Kind = "amount"
	// KindPercent discounts a percentage of the line's reference price per unit.
	KindPercent Kind = "percent"
)

// GateMode selects the quantity-gating semantics of a rule.
type GateMode int

const (
	// GateUnlimited applies the rule to every matching unit with no pool.
	GateUnlimited GateMode = iota
	// GateCap shares a cumulative quantity pool across all matching lines;
	// once the pool is exhausted no further units receive the discount.
	GateCap
	// GateThreshold discounts a line's entire quantity only when the line
	// quantity meets the minimum. Lines below the minimum get nothing.
	GateThreshold
)

// Gate carries the gating mode and its quantity parameter. Qty is the pool
// size for GateCap and the minimum line quantity for GateThreshold; it is
// ignored for GateUnlimited.
type Gate struct {
	Mode GateMode        `json:"mode"`
	Qty  decimal.Decimal `json:"qty"`
}

// GateFromLegacy maps the historical numeric gate fields onto a Gate. The
// legacy min-quantity field selects threshold semantics when positive; when it
// is zero or absent the rule runs in cumulative-cap mode, where a positive cap
// bounds the shared pool and a missing cap means unlimited. The two behaviours
// are intentionally kept as distinct variants rather than merged.
func GateFromLegacy(minQty, capQty decimal.Decimal) Gate {
	if minQty.IsPositive() {
		return Gate{Mode: GateThreshold, Qty: minQty}
	}
	if capQty.IsPositive() {
		return Gate{Mode: GateCap, Qty: capQty}
	}
	return Gate{Mode: GateUnlimited}
}

// Rule is an immutable discount definition. Lower Priority values are applied
// earlier, which also means they drain shared cap pools first.
type Rule struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Priority   int             `json:"priority"`
	AppliesTo  Target          `json:"appliesTo"`
	TargetID   uuid.UUID       `json:"targetId"`
	Kind       Kind            `json:"kind"`
	Value      decimal.Decimal `json:"value"`
	Gate       Gate            `json:"gate"`
	Active     bool            `json:"active"`
	ActiveFrom time.Time       `json:"activeFrom"`
	ActiveTo   time.Time       `json:"activeTo"`
}

// farFuture stands in for a missing upper validity bound.
var farFuture = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Window returns the inclusive validity bounds, substituting open bounds for
// zero values so rules with missing dates stay always-active.
func (r Rule) Window() (time.Time, time.Time) {
	from := r.ActiveFrom
	if from.IsZero() {
		from = time.Unix(0, 0).UTC()
	}
	to := r.ActiveTo
	if to.IsZero() {
		to = farFuture
	}
	return from, to
}

// EffectiveAt reports whether the rule may be applied at the given instant.
func (r Rule) EffectiveAt(t time.Time) bool {
	if !r.Active {
		return false
	}
	from, to := r.Window()
	return !t.Before(from) && !t.After(to)
}

// ParseWindow parses validity bounds from their stored text form. Unparseable
// or empty values yield zero times, which Window treats as open bounds;
// pricing must never fail because a rule carries a malformed date.
func ParseWindow(from, to string) (time.Time, time.Time) {
	return parseInstant(from), parseInstant(to)
}

func parseInstant(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
