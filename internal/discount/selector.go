package discount

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// FilterEffective keeps only rules that may be applied at the given instant.
func FilterEffective(rules []Rule, now time.Time) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.EffectiveAt(now) {
			out = append(out, r)
		}
	}
	return out
}

// SortByPriority orders rules ascending by priority in place and returns the
// slice. The sort is stable: ties keep their repository order, otherwise cap
// allocation between equal-priority rules would differ between runs.
func SortByPriority(rules []Rule) []Rule {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
	return rules
}

// SelectEffective narrows the rule set to rules that are effective at now and
// target at least one product or category present in the cart, sorted by
// priority. Identifier comparison is exact; there is no string coercion.
func SelectEffective(rules []Rule, productIDs, categoryIDs []uuid.UUID, now time.Time) []Rule {
	products := make(map[uuid.UUID]struct{}, len(productIDs))
	for _, id := range productIDs {
		products[id] = struct{}{}
	}
	categories := make(map[uuid.UUID]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		categories[id] = struct{}{}
	}

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.EffectiveAt(now) {
			continue
		}
		switch r.AppliesTo {
		case TargetProduct:
			if _, ok := products[r.TargetID]; !ok {
				continue
			}
		case TargetCategory:
			if _, ok := categories[r.TargetID]; !ok {
				continue
			}
		default:
			continue
		}
		out = append(out, r)
	}
	return SortByPriority(out)
}
