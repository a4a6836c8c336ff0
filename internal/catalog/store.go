package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a sellable item. RetailPrice is the undiscounted shelf price the
// pricing pass discounts against; Price is what the register currently charges.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	Price       decimal.Decimal `json:"price"`
	RetailPrice decimal.Decimal `json:"retailPrice"`
	TaxRateBps  int             `json:"taxRateBps"`
}

// Store reads products from Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

const productColumns = `id, sku, name, category_id, price, retail_price, tax_rate_bps`

// GetProductBySKU fetches one product by its SKU.
func (s *Store) GetProductBySKU(ctx context.Context, sku string) (Product, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
	return scanProduct(row)
}

// GetProductByID fetches one product by identifier.
func (s *Store) GetProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p             Product
		price, retail pgtype.Numeric
	)
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.CategoryID, &price, &retail, &p.TaxRateBps)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("scan product: %w", err)
	}
	p.Price = numericToDecimal(price)
	p.RetailPrice = numericToDecimal(retail)
	return p, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
