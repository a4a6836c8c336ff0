package rules

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rakapradana/kasapos/internal/cache"
	"github.com/rakapradana/kasapos/internal/discount"
)

// Repository captures the persistence methods the service reads through.
type Repository interface {
	ListActiveRules(ctx context.Context) ([]discount.Rule, error)
	ListRulesBySKUs(ctx context.Context, skus []string) ([]discount.Rule, error)
}

// Writer captures the persistence methods used by the admin surface.
type Writer interface {
	UpsertRule(ctx context.Context, r discount.Rule) error
}

// Service resolves the rule set for pricing passes. The active set is cached
// briefly in Redis; the cache never feeds the admin surface.
type Service struct {
	Repo   Repository
	Writer Writer
	Cache  *cache.JSON
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Active returns every active rule, cache-first.
func (s *Service) Active(ctx context.Context) ([]discount.Rule, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("rules service not configured")
	}
	var cached []discount.Rule
	if ok, err := s.Cache.Get(ctx, cache.KeyActiveRules, &cached); err == nil && ok {
		return cached, nil
	}
	rules, err := s.Repo.ListActiveRules(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.Set(ctx, cache.KeyActiveRules, rules)
	return rules, nil
}

// Effective resolves the prioritized rule list for one cart. When direct
// identifier matching selects nothing and SKUs are available, it retries
// through the SKU resolution fallback, filtering only by effectiveness since
// the identifier mismatch is exactly what the fallback works around.
func (s *Service) Effective(ctx context.Context, productIDs, categoryIDs []uuid.UUID, skus []string) ([]discount.Rule, error) {
	all, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	selected := discount.SelectEffective(all, productIDs, categoryIDs, now)
	if len(selected) > 0 || len(skus) == 0 {
		return selected, nil
	}
	fallback, err := s.Repo.ListRulesBySKUs(ctx, skus)
	if err != nil {
		return nil, err
	}
	return discount.SortByPriority(discount.FilterEffective(fallback, now)), nil
}

// Upsert stores a rule and invalidates the active-set cache.
func (s *Service) Upsert(ctx context.Context, r discount.Rule) error {
	if s == nil || s.Writer == nil {
		return errors.New("rules service not configured")
	}
	if err := s.Writer.UpsertRule(ctx, r); err != nil {
		return err
	}
	_ = s.Cache.Delete(ctx, cache.KeyActiveRules)
	return nil
}
