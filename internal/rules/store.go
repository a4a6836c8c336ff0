package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rakapradana/kasapos/internal/discount"
)

// ErrDuplicateName indicates a rule with the same name already exists.
var ErrDuplicateName = errors.New("rule name already exists")

const ruleColumns = `id, name, priority, applies_to, target_id, kind, value, min_qty, cap_qty, active, active_from, active_to`

// Store persists discount rules in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// ListActiveRules returns every rule flagged active in insertion order. Window
// filtering stays in the selector so malformed dates cannot fail the query.
func (s *Store) ListActiveRules(ctx context.Context) ([]discount.Rule, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM discount_rules
		WHERE active
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// ListRulesBySKUs resolves rules through the product table. It exists as a
// fallback for carts whose upstream identifiers do not match rule targets
// directly, matching both product-targeted and category-targeted rules.
func (s *Store) ListRulesBySKUs(ctx context.Context, skus []string) ([]discount.Rule, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM discount_rules r
		WHERE r.active AND EXISTS (
			SELECT 1 FROM products p
			WHERE p.sku = ANY($1)
			  AND ((r.applies_to = 'product' AND r.target_id = p.id)
			    OR (r.applies_to = 'category' AND r.target_id = p.category_id))
		)
		ORDER BY r.created_at, r.id`, skus)
	if err != nil {
		return nil, fmt.Errorf("list rules by skus: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// UpsertRule inserts or replaces a rule by identifier.
func (s *Store) UpsertRule(ctx context.Context, r discount.Rule) error {
	minQty := decimal.Zero
	capQty := decimal.Zero
	switch r.Gate.Mode {
	case discount.GateThreshold:
		minQty = r.Gate.Qty
	case discount.GateCap:
		capQty = r.Gate.Qty
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO discount_rules (id, name, priority, applies_to, target_id, kind, value, min_qty, cap_qty, active, active_from, active_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			priority = EXCLUDED.priority,
			applies_to = EXCLUDED.applies_to,
			target_id = EXCLUDED.target_id,
			kind = EXCLUDED.kind,
			value = EXCLUDED.value,
			min_qty = EXCLUDED.min_qty,
			cap_qty = EXCLUDED.cap_qty,
			active = EXCLUDED.active,
			active_from = EXCLUDED.active_from,
			active_to = EXCLUDED.active_to,
			updated_at = now()`,
		r.ID, r.Name, r.Priority, string(r.AppliesTo), r.TargetID, string(r.Kind),
		decimalToNumeric(r.Value), decimalToNumeric(minQty), decimalToNumeric(capQty),
		r.Active, timeToTimestamptz(r.ActiveFrom), timeToTimestamptz(r.ActiveTo))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%q: %w", r.Name, ErrDuplicateName)
		}
		return fmt.Errorf("upsert rule: %w", err)
	}
	return nil
}

func scanRules(rows pgx.Rows) ([]discount.Rule, error) {
	var out []discount.Rule
	for rows.Next() {
		var (
			id, targetID        uuid.UUID
			name                string
			priority            int
			appliesTo, kind     string
			value, minQ, capQ   pgtype.Numeric
			active              bool
			activeFrom, activeT pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &name, &priority, &appliesTo, &targetID, &kind,
			&value, &minQ, &capQ, &active, &activeFrom, &activeT); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r := discount.Rule{
			ID:        id,
			Name:      name,
			Priority:  priority,
			AppliesTo: discount.Target(appliesTo),
			TargetID:  targetID,
			Kind:      discount.Kind(kind),
			Value:     numericToDecimal(value),
			Gate:      discount.GateFromLegacy(numericToDecimal(minQ), numericToDecimal(capQ)),
			Active:    active,
		}
		if activeFrom.Valid {
			r.ActiveFrom = activeFrom.Time
		}
		if activeT.Valid {
			r.ActiveTo = activeT.Time
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func timeToTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
