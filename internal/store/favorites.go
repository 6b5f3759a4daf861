package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
)

// ListFavorites returns the user's saved products, oldest first.
func ListFavorites(ctx context.Context, db *sql.DB, userID string) ([]models.Product, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []models.Product{}, nil
	}

	columns := "p." + strings.ReplaceAll(productColumns, ", ", ", p.")
	query := `
		SELECT ` + columns + `
		FROM user_favorites f
		JOIN products p ON p.id = f.product_id
		WHERE f.user_id = $1
		ORDER BY f.created_at, p.id`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}

	return favorites, nil
}

// AddFavorite is idempotent; saving a product twice keeps the first timestamp.
func AddFavorite(ctx context.Context, db *sql.DB, userID, productID string) error {
	if _, err := uuid.Parse(productID); err != nil {
		return database.ErrProductNotFound
	}
	if _, err := uuid.Parse(userID); err != nil {
		return database.ErrUserNotFound
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO user_favorites (user_id, product_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, product_id) DO NOTHING`, userID, productID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return database.ErrProductNotFound
		}
		return fmt.Errorf("add favorite: %w", err)
	}

	return nil
}

// RemoveFavorite succeeds whether or not the product was saved.
func RemoveFavorite(ctx context.Context, db *sql.DB, userID, productID string) error {
	if _, err := uuid.Parse(productID); err != nil {
		return nil
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil
	}

	if _, err := db.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = $1 AND product_id = $2`, userID, productID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	return nil
}
