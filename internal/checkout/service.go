package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapradana/kasapos/internal/catalog"
	"github.com/rakapradana/kasapos/internal/discount"
	"github.com/rakapradana/kasapos/internal/obs"
	"github.com/rakapradana/kasapos/internal/pricing"
	"github.com/rakapradana/kasapos/internal/settings"
)

var tenThousand = decimal.NewFromInt(10000)

// ProductSource resolves cart lines to catalog products.
type ProductSource interface {
	BySKU(ctx context.Context, sku string) (catalog.Product, error)
	ByID(ctx context.Context, id uuid.UUID) (catalog.Product, error)
}

// RuleSource resolves the prioritized rule list for a cart.
type RuleSource interface {
	Effective(ctx context.Context, productIDs, categoryIDs []uuid.UUID, skus []string) ([]discount.Rule, error)
}

// SettingsSource loads the register settings a pass runs under.
type SettingsSource interface {
	Load(ctx context.Context) settings.Settings
}

// LineInput is one cart line as submitted by the register. Either SKU or
// ProductID identifies the product; UnitPrice overrides the catalog price
// when set (price-override sales, damaged goods).
type LineInput struct {
	SKU       string           `json:"sku"`
	ProductID string           `json:"productId"`
	Qty       decimal.Decimal  `json:"qty"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

// ManualInput is a cashier-entered cart-level discount.
type ManualInput struct {
	Kind  string          `json:"kind" validate:"required,oneof=amount percent"`
	Value decimal.Decimal `json:"value"`
}

// Input is one pricing preview request.
type Input struct {
	Lines  []LineInput  `json:"lines" validate:"required,min=1,dive"`
	Manual *ManualInput `json:"manualDiscount,omitempty"`
}

// Quote is the full outcome of a pricing pass: priced lines, every rule
// contribution in application order, raw and rounded totals, and warnings.
type Quote struct {
	Lines    []discount.Line        `json:"lines"`
	Applied  []discount.AppliedRule `json:"appliedRules"`
	Summary  pricing.Summary        `json:"summary"`
	Rounded  pricing.Summary        `json:"rounded"`
	Warnings []string               `json:"warnings,omitempty"`
}

// Service orchestrates a pricing pass: product resolution, rule selection,
// the discount engine, per-line tax, and cart totals.
type Service struct {
	Products ProductSource
	Rules    RuleSource
	Settings SettingsSource
}

// Preview prices a cart without persisting anything. Pricing is pure given
// its inputs, so previewing twice is exactly as safe as previewing once.
func (s *Service) Preview(ctx context.Context, in Input) (Quote, error) {
	if s == nil || s.Products == nil || s.Rules == nil {
		return Quote{}, errors.New("checkout service not configured")
	}
	start := time.Now()
	if len(in.Lines) == 0 {
		return Quote{}, fmt.Errorf("at least one line is required: %w", discount.ErrInvalidLine)
	}

	lines := make([]discount.Line, 0, len(in.Lines))
	taxBps := make(map[uuid.UUID]int, len(in.Lines))
	var skus []string
	for i, li := range in.Lines {
		p, err := s.resolve(ctx, li)
		if err != nil {
			return Quote{}, fmt.Errorf("line %d: %w", i, err)
		}
		unit := p.Price
		if li.UnitPrice != nil {
			unit = *li.UnitPrice
		}
		lines = append(lines, discount.Line{
			ProductID:      p.ID,
			CategoryID:     p.CategoryID,
			SKU:            p.SKU,
			Qty:            li.Qty,
			UnitPrice:      unit,
			ReferencePrice: p.RetailPrice,
		})
		taxBps[p.ID] = p.TaxRateBps
		if p.SKU != "" {
			skus = append(skus, p.SKU)
		}
	}

	cfg := settings.Settings{RoundingMode: discount.ModeNearestUnit}
	if s.Settings != nil {
		cfg = s.Settings.Load(ctx)
	}

	productIDs := make([]uuid.UUID, 0, len(lines))
	categoryIDs := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.ProductID)
		if l.CategoryID != uuid.Nil {
			categoryIDs = append(categoryIDs, l.CategoryID)
		}
	}
	rules, err := s.Rules.Effective(ctx, productIDs, categoryIDs, skus)
	if err != nil {
		return Quote{}, fmt.Errorf("resolve rules: %w", err)
	}

	res, err := discount.Apply(lines, rules, cfg.RoundingMode)
	if err != nil {
		observePass("invalid")
		return Quote{}, err
	}

	// Tax applies to the discounted line value. The engine leaves Tax alone,
	// so totals are restated here once tax is known.
	for i := range res.Lines {
		l := &res.Lines[i]
		bps := taxBps[l.ProductID]
		if bps > 0 {
			base := l.UnitPrice.Mul(l.Qty).Sub(l.Discount)
			if base.IsNegative() {
				base = decimal.Zero
			}
			l.Tax = discount.Round(base.Mul(decimal.NewFromInt(int64(bps))).Div(tenThousand), cfg.RoundingMode)
		}
		l.Total = l.UnitPrice.Mul(l.Qty).Sub(l.Discount).Add(l.Tax)
	}

	summary := pricing.Compute(res.Lines)
	if in.Manual != nil {
		policy := pricing.ManualPolicy{
			MaxPercent:          cfg.MaxManualDiscountPercent,
			AllowNegativeTotals: cfg.AllowNegativeTotals,
		}
		manual := pricing.Manual{Kind: discount.Kind(in.Manual.Kind), Value: in.Manual.Value}
		summary = pricing.ApplyManual(summary, manual, policy, cfg.RoundingMode)
	}

	observePass("ok")
	if obs.PricingWarningTotal != nil {
		obs.PricingWarningTotal.Add(float64(len(res.Warnings)))
	}
	if obs.PricingRulesApplied != nil {
		obs.PricingRulesApplied.Observe(float64(len(res.Applied)))
	}
	if obs.PricingPassDuration != nil {
		obs.PricingPassDuration.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}

	return Quote{
		Lines:    res.Lines,
		Applied:  res.Applied,
		Summary:  summary,
		Rounded:  summary.Rounded(cfg.RoundingMode),
		Warnings: res.Warnings,
	}, nil
}

func (s *Service) resolve(ctx context.Context, li LineInput) (catalog.Product, error) {
	if li.SKU != "" {
		return s.Products.BySKU(ctx, li.SKU)
	}
	if li.ProductID != "" {
		id, err := uuid.Parse(li.ProductID)
		if err != nil {
			return catalog.Product{}, errors.New("invalid product id")
		}
		return s.Products.ByID(ctx, id)
	}
	return catalog.Product{}, errors.New("sku or productId is required")
}

func observePass(result string) {
	if obs.PricingPassTotal != nil {
		obs.PricingPassTotal.WithLabelValues(result).Inc()
	}
}
