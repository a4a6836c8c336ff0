package discount

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Mode names a monetary rounding policy.
type Mode string

const (
	// ModeNearestUnit rounds to the nearest whole currency unit.
	ModeNearestUnit Mode = "NEAREST_1"
	// ModeNearestHalf rounds to the nearest half unit.
	ModeNearestHalf Mode = "NEAREST_HALF"
	// ModeNearestTenth rounds to the nearest tenth of a unit.
	ModeNearestTenth Mode = "NEAREST_TENTH"
	// ModeFloor rounds down to a whole unit.
	ModeFloor Mode = "FLOOR"
	// ModeCeil rounds up to a whole unit.
	ModeCeil Mode = "CEIL"
)

var two = decimal.NewFromInt(2)

// ParseMode resolves a stored mode name. Unknown or empty values fall back to
// NEAREST_1; a configuration gap must never fail a pricing pass.
func ParseMode(value string) Mode {
	switch Mode(strings.ToUpper(strings.TrimSpace(value))) {
	case ModeNearestHalf:
		return ModeNearestHalf
	case ModeNearestTenth:
		return ModeNearestTenth
	case ModeFloor:
		return ModeFloor
	case ModeCeil:
		return ModeCeil
	default:
		return ModeNearestUnit
	}
}

// Round applies the policy to a raw amount. Halves round away from zero.
func Round(amount decimal.Decimal, mode Mode) decimal.Decimal {
	switch mode {
	case ModeNearestHalf:
		return amount.Mul(two).Round(0).Div(two)
	case ModeNearestTenth:
		return amount.Round(1)
	case ModeFloor:
		return amount.Floor()
	case ModeCeil:
		return amount.Ceil()
	default:
		return amount.Round(0)
	}
}
