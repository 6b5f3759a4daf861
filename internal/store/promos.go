package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/promo"
)

type NewPromo struct {
	Code            string
	DiscountPercent int
	ExpiresAt       *time.Time
	UsageLimit      *int
}

const promoColumns = `id, code, discount_percent, is_active, expires_at, usage_limit, usage_count, created_at`

func scanPromo(row interface{ Scan(...any) error }) (*models.PromoCode, error) {
	p := &models.PromoCode{}
	var (
		expiresAt  sql.NullTime
		usageLimit sql.NullInt64
	)
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.DiscountPercent,
		&p.Active,
		&expiresAt,
		&usageLimit,
		&p.UsageCount,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		p.ExpiresAt = &t
	}
	if usageLimit.Valid {
		n := int(usageLimit.Int64)
		p.UsageLimit = &n
	}
	return p, nil
}

func CreatePromo(ctx context.Context, db *sql.DB, in NewPromo) (*models.PromoCode, error) {
	query := `
		INSERT INTO promo_codes (id, code, discount_percent, is_active, expires_at, usage_limit, usage_count, created_at)
		VALUES ($1, $2, $3, TRUE, $4, $5, 0, NOW())
		RETURNING ` + promoColumns

	var usageLimit sql.NullInt64
	if in.UsageLimit != nil {
		usageLimit = sql.NullInt64{Int64: int64(*in.UsageLimit), Valid: true}
	}
	var expiresAt sql.NullTime
	if in.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *in.ExpiresAt, Valid: true}
	}

	p, err := scanPromo(db.QueryRowContext(ctx, query,
		uuid.NewString(), promo.NormalizeCode(in.Code), in.DiscountPercent, expiresAt, usageLimit))
	if err != nil {
		if database.IsUniqueViolation(err, "promo_codes_code_key") {
			return nil, database.ErrPromoCodeTaken
		}
		return nil, fmt.Errorf("create promo code: %w", err)
	}

	return p, nil
}

// FindPromoByCode returns the row for code whether or not it is active.
func FindPromoByCode(ctx context.Context, db *sql.DB, code string) (*models.PromoCode, error) {
	p, err := scanPromo(db.QueryRowContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = $1`, promo.NormalizeCode(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrPromoNotFound
		}
		return nil, fmt.Errorf("find promo code: %w", err)
	}

	return p, nil
}

func ListPromos(ctx context.Context, db *sql.DB) ([]models.PromoCode, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+promoColumns+` FROM promo_codes ORDER BY created_at, code`)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	defer rows.Close()

	promos := []models.PromoCode{}
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promo code: %w", err)
		}
		promos = append(promos, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return promos, nil
}

// DeactivatePromo keeps the row so promo_usage history stays intact.
func DeactivatePromo(ctx context.Context, db *sql.DB, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return database.ErrPromoNotFound
	}

	result, err := db.ExecContext(ctx, `UPDATE promo_codes SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate promo code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrPromoNotFound
	}

	return nil
}

// lockPromo loads code under a row lock and applies the usage rules as of now.
func lockPromo(ctx context.Context, tx *sql.Tx, code string, now time.Time) (*models.PromoCode, error) {
	p, err := scanPromo(tx.QueryRowContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = $1 FOR UPDATE`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, fmt.Errorf("lock promo code: %w", err)
	}

	if err := promo.Check(p, now); err != nil {
		return nil, err
	}

	return p, nil
}

func recordPromoUse(ctx context.Context, tx *sql.Tx, promoID, userID, orderID string, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE promo_codes SET usage_count = usage_count + 1 WHERE id = $1`, promoID)
	if err != nil {
		return fmt.Errorf("increment promo usage: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO promo_usage (id, promo_code_id, user_id, order_id, used_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), promoID, userID, orderID, now)
	if err != nil {
		return fmt.Errorf("record promo usage: %w", err)
	}

	return nil
}
