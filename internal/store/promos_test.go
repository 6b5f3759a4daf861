package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/promo"
	"github.com/safar/go-sql-storefront/internal/store"
)

func TestPromoLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	created, err := store.CreatePromo(ctx, db, store.NewPromo{
		Code:            " summer ",
		DiscountPercent: 25,
		ExpiresAt:       &expires,
		UsageLimit:      intPtr(10),
	})
	if err != nil {
		t.Fatalf("Create promo: %v", err)
	}
	if created.Code != "SUMMER" || !created.Active || created.UsageCount != 0 {
		t.Errorf("Unexpected promo %+v", created)
	}
	if created.ExpiresAt == nil || !created.ExpiresAt.Equal(expires) {
		t.Errorf("Expected expiry %s, got %v", expires, created.ExpiresAt)
	}

	if _, err := store.CreatePromo(ctx, db, store.NewPromo{Code: "Summer", DiscountPercent: 5}); !errors.Is(err, database.ErrPromoCodeTaken) {
		t.Errorf("Expected ErrPromoCodeTaken, got %v", err)
	}

	v := promo.NewValidator(store.Promos{DB: db})
	res, err := v.Validate(ctx, "summer")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.DiscountPercent != 25 {
		t.Errorf("Expected 25%%, got %d%%", res.DiscountPercent)
	}

	if err := store.DeactivatePromo(ctx, db, created.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := v.Validate(ctx, "SUMMER"); !errors.Is(err, promo.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for inactive promo, got %v", err)
	}

	promos, err := store.ListPromos(ctx, db)
	if err != nil {
		t.Fatalf("List promos: %v", err)
	}
	if len(promos) != 1 || promos[0].Active {
		t.Errorf("Expected one inactive promo to remain listed, got %+v", promos)
	}

	if err := store.DeactivatePromo(ctx, db, "00000000-0000-0000-0000-000000000002"); !errors.Is(err, database.ErrPromoNotFound) {
		t.Errorf("Expected ErrPromoNotFound, got %v", err)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	c := store.OrderCursor{CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), ID: "5f0c7a8e-2d1b-4c3e-9a6f-1b2c3d4e5f60"}

	decoded, err := store.DecodeCursor(store.EncodeCursor(c))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded == nil || !decoded.CreatedAt.Equal(c.CreatedAt) || decoded.ID != c.ID {
		t.Errorf("Expected %+v, got %+v", c, decoded)
	}

	first, err := store.DecodeCursor("")
	if err != nil || first != nil {
		t.Errorf("Expected nil cursor for first page, got %+v, %v", first, err)
	}

	malformed := []string{"%%%", store.EncodeCursor(store.OrderCursor{ID: "not-a-uuid"})}
	for _, m := range malformed {
		if _, err := store.DecodeCursor(m); !errors.Is(err, store.ErrInvalidCursor) {
			t.Errorf("Expected ErrInvalidCursor for %q, got %v", m, err)
		}
	}
}
