package rules

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapradana/kasapos/internal/common"
	"github.com/rakapradana/kasapos/internal/discount"
)

// Handler exposes rule listing and administrative upserts.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type rulePayload struct {
	Name       string          `json:"name" validate:"required"`
	Priority   int             `json:"priority"`
	AppliesTo  string          `json:"appliesTo" validate:"required,oneof=product category"`
	TargetID   string          `json:"targetId" validate:"required,uuid"`
	Kind       string          `json:"kind" validate:"required,oneof=amount percent"`
	Value      decimal.Decimal `json:"value"`
	MinQty     decimal.Decimal `json:"minQty"`
	CapQty     decimal.Decimal `json:"capQty"`
	Active     bool            `json:"active"`
	ActiveFrom string          `json:"activeFrom"`
	ActiveTo   string          `json:"activeTo"`
}

// List handles GET /api/v1/rules returning the active rule set.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rules service not configured", nil)
		return
	}
	out, err := h.Svc.Active(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list rules", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Effective handles GET /api/v1/rules/effective. Query parameters productId,
// categoryId, and sku repeat once per cart entry; the response is the
// prioritized rule list a pricing pass would run with right now.
func (h *Handler) Effective(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rules service not configured", nil)
		return
	}
	q := r.URL.Query()
	productIDs, err := parseUUIDs(q["productId"])
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid productId", nil)
		return
	}
	categoryIDs, err := parseUUIDs(q["categoryId"])
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid categoryId", nil)
		return
	}
	out, err := h.Svc.Effective(r.Context(), productIDs, categoryIDs, q["sku"])
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve rules", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Create handles POST /api/v1/admin/rules.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, uuid.New())
}

// Update handles PUT /api/v1/admin/rules/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid rule id", nil)
		return
	}
	h.upsert(w, r, id)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rules service not configured", nil)
		return
	}
	var payload rulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}
	rule, err := payload.toRule(id)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "UNPROCESSABLE", err.Error(), nil)
		return
	}
	if err := h.Svc.Upsert(r.Context(), rule); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "rule name already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to store rule", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rule})
}

func (p rulePayload) toRule(id uuid.UUID) (discount.Rule, error) {
	if p.Value.IsNegative() {
		return discount.Rule{}, errors.New("value must not be negative")
	}
	if discount.Kind(p.Kind) == discount.KindPercent && p.Value.GreaterThan(decimal.NewFromInt(100)) {
		return discount.Rule{}, errors.New("percent value must not exceed 100")
	}
	if p.MinQty.IsNegative() || p.CapQty.IsNegative() {
		return discount.Rule{}, errors.New("quantity gate must not be negative")
	}
	targetID, err := uuid.Parse(p.TargetID)
	if err != nil {
		return discount.Rule{}, errors.New("invalid target id")
	}
	from, to := discount.ParseWindow(p.ActiveFrom, p.ActiveTo)
	return discount.Rule{
		ID:         id,
		Name:       p.Name,
		Priority:   p.Priority,
		AppliesTo:  discount.Target(p.AppliesTo),
		TargetID:   targetID,
		Kind:       discount.Kind(p.Kind),
		Value:      p.Value,
		Gate:       discount.GateFromLegacy(p.MinQty, p.CapQty),
		Active:     p.Active,
		ActiveFrom: from,
		ActiveTo:   to,
	}, nil
}
