package settings

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rakapradana/kasapos/internal/discount"
)

// Keys recognised in pos_settings. Unknown keys are ignored.
const (
	KeyRoundingMode        = "rounding_mode"
	KeyMaxManualPercent    = "max_manual_discount_percent"
	KeyAllowNegativeTotals = "allow_negative_totals"
)

// Settings are the register-level knobs a pricing pass runs under.
type Settings struct {
	RoundingMode             discount.Mode
	MaxManualDiscountPercent decimal.Decimal
	AllowNegativeTotals      bool
}

// Source captures the persistence read the service goes through.
type Source interface {
	Values(ctx context.Context) (map[string]string, error)
}

// Service loads register settings, falling back to configured defaults for
// missing or unparseable values. A store failure also degrades to defaults so
// a broken settings table cannot take pricing down.
type Service struct {
	Repo     Source
	Defaults Settings
}

// Load returns the effective settings.
func (s *Service) Load(ctx context.Context) Settings {
	out := s.Defaults
	if s == nil || s.Repo == nil {
		return out
	}
	values, err := s.Repo.Values(ctx)
	if err != nil {
		return out
	}
	if v, ok := values[KeyRoundingMode]; ok {
		out.RoundingMode = discount.ParseMode(v)
	}
	if v, ok := values[KeyMaxManualPercent]; ok {
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil && !d.IsNegative() {
			out.MaxManualDiscountPercent = d
		}
	}
	if v, ok := values[KeyAllowNegativeTotals]; ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			out.AllowNegativeTotals = true
		case "false", "0", "no":
			out.AllowNegativeTotals = false
		}
	}
	return out
}
