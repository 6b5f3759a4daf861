package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/promo"
	"github.com/safar/go-sql-storefront/internal/respond"
	"github.com/safar/go-sql-storefront/internal/store"
)

type promoValidator interface {
	Validate(ctx context.Context, code string) (*promo.Result, error)
}

type promoStore interface {
	CreatePromo(ctx context.Context, in store.NewPromo) (*models.PromoCode, error)
	ListPromos(ctx context.Context) ([]models.PromoCode, error)
	DeactivatePromo(ctx context.Context, id string) error
}

type PromoHandler struct {
	validator promoValidator
	promos    promoStore
	log       *slog.Logger
}

func NewPromoHandler(validator promoValidator, promos promoStore, log *slog.Logger) *PromoHandler {
	return &PromoHandler{validator: validator, promos: promos, log: log}
}

type validatePromoRequest struct {
	Code string `json:"code"`
}

type validatePromoResponse struct {
	Valid           bool   `json:"valid"`
	DiscountPercent int    `json:"discountPercent"`
	Code            string `json:"code"`
}

// createPromoRequest leaves usageLimit out for an unlimited code; a stored
// limit is always at least 1.
type createPromoRequest struct {
	Code            string     `json:"code" validate:"required,max=64"`
	DiscountPercent int        `json:"discountPercent" validate:"required,min=1,max=100"`
	ExpiresAt       *time.Time `json:"expiresAt"`
	UsageLimit      *int       `json:"usageLimit" validate:"omitempty,min=1"`
}

// ValidatePromo handles POST /api/promo/validate
func (h *PromoHandler) ValidatePromo(w http.ResponseWriter, r *http.Request) {
	var req validatePromoRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		respond.Error(w, http.StatusBadRequest, "Promo code is required", h.log)
		return
	}

	result, err := h.validator.Validate(r.Context(), req.Code)
	if err != nil {
		if status, msg, ok := promoErrorStatus(err); ok {
			respond.Error(w, status, msg, h.log)
			return
		}
		h.log.Error("failed to validate promo code", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to validate promo code", h.log)
		return
	}

	respond.JSON(w, http.StatusOK, validatePromoResponse{
		Valid:           true,
		DiscountPercent: result.DiscountPercent,
		Code:            result.Code,
	}, h.log)
}

// ListPromos handles GET /api/admin/promo
func (h *PromoHandler) ListPromos(w http.ResponseWriter, r *http.Request) {
	promos, err := h.promos.ListPromos(r.Context())
	if err != nil {
		h.log.Error("failed to list promo codes", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch promo codes", h.log)
		return
	}
	if promos == nil {
		promos = []models.PromoCode{}
	}

	respond.JSON(w, http.StatusOK, map[string][]models.PromoCode{"promoCodes": promos}, h.log)
}

// CreatePromo handles POST /api/admin/promo
func (h *PromoHandler) CreatePromo(w http.ResponseWriter, r *http.Request) {
	var req createPromoRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}

	p, err := h.promos.CreatePromo(r.Context(), store.NewPromo{
		Code:            req.Code,
		DiscountPercent: req.DiscountPercent,
		ExpiresAt:       req.ExpiresAt,
		UsageLimit:      req.UsageLimit,
	})
	if err != nil {
		if errors.Is(err, database.ErrPromoCodeTaken) {
			respond.Error(w, http.StatusConflict, "Promo code already exists", h.log)
			return
		}
		h.log.Error("failed to create promo code", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to create promo code", h.log)
		return
	}

	h.log.Info("promo code created", "promo_id", p.ID, "code", p.Code)
	respond.JSON(w, http.StatusCreated, p, h.log)
}

// DeactivatePromo handles DELETE /api/admin/promo/{id}
func (h *PromoHandler) DeactivatePromo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.promos.DeactivatePromo(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrPromoNotFound) {
			respond.Error(w, http.StatusNotFound, "Promo code not found", h.log)
			return
		}
		h.log.Error("failed to deactivate promo code", "promo_id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to deactivate promo code", h.log)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Promo code deactivated"}, h.log)
}

// promoErrorStatus maps promo rejections to their client status.
func promoErrorStatus(err error) (int, string, bool) {
	switch {
	case errors.Is(err, promo.ErrNotFound):
		return http.StatusNotFound, "Invalid promo code", true
	case errors.Is(err, promo.ErrExpired):
		return http.StatusBadRequest, "Promo code has expired", true
	case errors.Is(err, promo.ErrLimitReached):
		return http.StatusBadRequest, "Promo code usage limit reached", true
	}
	return 0, "", false
}
