package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rakapradana/kasapos/internal/discount"
)

type stubSource struct {
	values map[string]string
	err    error
}

func (s *stubSource) Values(ctx context.Context) (map[string]string, error) {
	return s.values, s.err
}

func defaults() Settings {
	return Settings{
		RoundingMode:             discount.ModeNearestUnit,
		MaxManualDiscountPercent: decimal.NewFromInt(100),
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	svc := &Service{
		Repo: &stubSource{values: map[string]string{
			KeyRoundingMode:        "NEAREST_HALF",
			KeyMaxManualPercent:    "25",
			KeyAllowNegativeTotals: "true",
		}},
		Defaults: defaults(),
	}
	got := svc.Load(context.Background())
	if got.RoundingMode != discount.ModeNearestHalf {
		t.Fatalf("rounding mode = %s, want NEAREST_HALF", got.RoundingMode)
	}
	if !got.MaxManualDiscountPercent.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("max manual percent = %s, want 25", got.MaxManualDiscountPercent)
	}
	if !got.AllowNegativeTotals {
		t.Fatal("allow negative totals should be true")
	}
}

func TestLoadKeepsDefaultsOnStoreFailure(t *testing.T) {
	svc := &Service{
		Repo:     &stubSource{err: errors.New("connection refused")},
		Defaults: defaults(),
	}
	got := svc.Load(context.Background())
	if got.RoundingMode != discount.ModeNearestUnit {
		t.Fatalf("rounding mode = %s, want default NEAREST_1", got.RoundingMode)
	}
}

func TestLoadIgnoresGarbageValues(t *testing.T) {
	svc := &Service{
		Repo: &stubSource{values: map[string]string{
			KeyRoundingMode:     "ROUND_TO_LUCKY_NUMBER",
			KeyMaxManualPercent: "-3",
		}},
		Defaults: defaults(),
	}
	got := svc.Load(context.Background())
	// Unknown rounding labels fall back to unit rounding rather than failing.
	if got.RoundingMode != discount.ModeNearestUnit {
		t.Fatalf("rounding mode = %s, want NEAREST_1 fallback", got.RoundingMode)
	}
	if !got.MaxManualDiscountPercent.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("negative percent must keep default, got %s", got.MaxManualDiscountPercent)
	}
}
