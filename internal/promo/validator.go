// Package promo decides whether a promo code can currently be applied.
package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
)

var (
	ErrNotFound     = errors.New("invalid promo code")
	ErrExpired      = errors.New("promo code has expired")
	ErrLimitReached = errors.New("promo code usage limit reached")
)

// Finder looks a promo up by its normalized code. It returns
// database.ErrPromoNotFound when no row matches.
type Finder interface {
	FindPromoByCode(ctx context.Context, code string) (*models.PromoCode, error)
}

type Result struct {
	Code            string `json:"code"`
	DiscountPercent int    `json:"discountPercent"`
}

type Validator struct {
	finder Finder
	now    func() time.Time
}

func NewValidator(finder Finder) *Validator {
	return &Validator{finder: finder, now: time.Now}
}

// NormalizeCode is the stored form of a code: trimmed and upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate has no side effects; usage is only counted when an order is placed.
func (v *Validator) Validate(ctx context.Context, code string) (*Result, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrNotFound
	}

	p, err := v.finder.FindPromoByCode(ctx, code)
	if errors.Is(err, database.ErrPromoNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find promo code: %w", err)
	}

	if err := Check(p, v.now()); err != nil {
		return nil, err
	}

	return &Result{Code: p.Code, DiscountPercent: p.DiscountPercent}, nil
}

// Check applies the usage rules to a loaded promo. Expiry wins over the
// usage limit. A nil or zero limit means unlimited.
func Check(p *models.PromoCode, now time.Time) error {
	if p == nil || !p.Active {
		return ErrNotFound
	}
	if p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
		return ErrExpired
	}
	if p.UsageLimit != nil && *p.UsageLimit > 0 && p.UsageCount >= *p.UsageLimit {
		return ErrLimitReached
	}
	return nil
}
