package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rakapradana/kasapos/internal/cache"
)

// Reader captures the product lookups the service reads through.
type Reader interface {
	GetProductBySKU(ctx context.Context, sku string) (Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (Product, error)
}

// Service resolves products, cache-first. Misses are not cached; a missing
// product is an input error and should stay visible on every request.
type Service struct {
	Repo  Reader
	Cache *cache.JSON
}

// BySKU returns the product carrying the given SKU.
func (s *Service) BySKU(ctx context.Context, sku string) (Product, error) {
	if s == nil || s.Repo == nil {
		return Product{}, errors.New("catalog service not configured")
	}
	key := cache.KeyProductSKU(sku)
	var cached Product
	if ok, err := s.Cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	p, err := s.Repo.GetProductBySKU(ctx, sku)
	if err != nil {
		return Product{}, err
	}
	_ = s.Cache.Set(ctx, key, p)
	return p, nil
}

// ByID returns the product with the given identifier.
func (s *Service) ByID(ctx context.Context, id uuid.UUID) (Product, error) {
	if s == nil || s.Repo == nil {
		return Product{}, errors.New("catalog service not configured")
	}
	key := cache.KeyProductID(id.String())
	var cached Product
	if ok, err := s.Cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	p, err := s.Repo.GetProductByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	_ = s.Cache.Set(ctx, key, p)
	return p, nil
}
