package discount

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidLine is returned when a cart line is structurally unusable and no
// documented default can repair it.
var ErrInvalidLine = errors.New("invalid cart line")

var hundred = decimal.NewFromInt(100)

// Result is the outcome of one pricing pass. Lines are updated copies of the
// input; Applied lists every rule contribution in application order; Warnings
// carries non-blocking configuration gaps and cap exhaustion notices.
type Result struct {
	Lines    []Line        `json:"lines"`
	Applied  []AppliedRule `json:"appliedRules"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Apply runs one pricing pass: it resets every line's discount state, walks
// the rules in the given order, and applies each rule to the lines it targets
// under that rule's quantity gate. Rules are expected to arrive already
// selected and priority-sorted (see SelectEffective). The pass is
// deterministic: the same lines, rules, and mode always produce the same
// output. The only pass-local state is the shared pool of each cumulative-cap
// rule; nothing survives between calls, so re-pricing is idempotent.
func Apply(lines []Line, rules []Rule, mode Mode) (Result, error) {
	out := make([]Line, len(lines))
	copy(out, lines)

	for i := range out {
		if !out[i].Qty.IsPositive() {
			return Result{}, fmt.Errorf("line %d: quantity must be positive: %w", i, ErrInvalidLine)
		}
		if out[i].UnitPrice.IsNegative() {
			return Result{}, fmt.Errorf("line %d: unit price must not be negative: %w", i, ErrInvalidLine)
		}
	}

	res := Result{Lines: out}
	for i := range out {
		l := &out[i]
		l.Discount = decimal.Zero
		l.Applied = nil
		if !l.ReferencePrice.IsPositive() {
			l.ReferencePrice = l.UnitPrice
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("reference price missing for product %s; using unit price", l.ProductID))
		}
		l.recalc()
	}

	// Shared pools exist only for finite cumulative caps and only for the
	// duration of this pass.
	pools := make(map[uuid.UUID]decimal.Decimal, len(rules))
	for _, r := range rules {
		if r.Gate.Mode == GateCap {
			pools[r.ID] = r.Gate.Qty
		}
	}

	for _, r := range rules {
		if warn := checkRule(r); warn != "" {
			res.Warnings = append(res.Warnings, warn)
			continue
		}
		applyRule(r, out, pools, mode, &res)
	}
	return res, nil
}

// applyRule allocates one rule across every line it targets. The line loop is
// strictly sequential: lower-priority rules must observe the pool state left
// behind by this rule.
func applyRule(r Rule, lines []Line, pools map[uuid.UUID]decimal.Decimal, mode Mode, res *Result) {
	for i := range lines {
		l := &lines[i]
		if !r.targets(*l) {
			continue
		}

		qty := l.Qty
		switch r.Gate.Mode {
		case GateThreshold:
			// All or nothing: a qualifying line is discounted on its
			// entire quantity, never just the excess over the minimum.
			if l.Qty.LessThan(r.Gate.Qty) {
				continue
			}
		case GateCap:
			remaining := pools[r.ID]
			if !remaining.IsPositive() {
				res.Warnings = append(res.Warnings, fmt.Sprintf("Cap reached for rule %q", r.Name))
				return
			}
			if qty.GreaterThan(remaining) {
				qty = remaining
			}
		}

		perUnit := r.Value
		if r.Kind == KindPercent {
			perUnit = l.ReferencePrice.Mul(r.Value).Div(hundred)
		}
		contribution := perUnit.Mul(qty)
		if ceiling := l.ReferencePrice.Mul(qty); contribution.GreaterThan(ceiling) {
			contribution = ceiling
		}
		contribution = Round(contribution, mode)
		if contribution.IsNegative() {
			contribution = decimal.Zero
		}

		l.Discount = l.Discount.Add(contribution)
		entry := AppliedRule{RuleID: r.ID, RuleName: r.Name, Amount: contribution}
		if r.Gate.Mode == GateCap {
			remaining := pools[r.ID].Sub(qty)
			pools[r.ID] = remaining
			entry.RemainingCap = &remaining
		}
		l.Applied = append(l.Applied, entry)
		res.Applied = append(res.Applied, entry)
		l.recalc()

		if r.Gate.Mode == GateCap && !pools[r.ID].IsPositive() {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Cap reached for rule %q", r.Name))
			return
		}
	}
}

func (r Rule) targets(l Line) bool {
	switch r.AppliesTo {
	case TargetProduct:
		return r.TargetID == l.ProductID
	case TargetCategory:
		return r.TargetID == l.CategoryID
	}
	return false
}

// checkRule rejects rules the engine cannot evaluate. A malformed rule is
// skipped with a warning instead of aborting the whole cart.
func checkRule(r Rule) string {
	switch r.Kind {
	case KindAmount, KindPercent:
	default:
		return fmt.Sprintf("skipping rule %q: unknown kind %q", r.Name, r.Kind)
	}
	switch r.AppliesTo {
	case TargetProduct, TargetCategory:
	default:
		return fmt.Sprintf("skipping rule %q: unknown target %q", r.Name, r.AppliesTo)
	}
	if r.Value.IsNegative() {
		return fmt.Sprintf("skipping rule %q: negative value", r.Name)
	}
	if r.Kind == KindPercent && r.Value.GreaterThan(hundred) {
		return fmt.Sprintf("skipping rule %q: percent value above 100", r.Name)
	}
	return ""
}
