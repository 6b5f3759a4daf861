package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/shopspring/decimal"
)

type ProductInput struct {
	Name          string
	Description   string
	Category      string
	Image         string
	Price         decimal.Decimal
	StockQuantity int
}

type ProductFilter struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*pageSize well inside a Postgres BIGINT OFFSET.
	MaxPage = 1_000_000
)

const productColumns = `id, name, description, category, image, price, stock_quantity, created_at, updated_at, version`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.Image,
		&product.Price,
		&product.StockQuantity,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
	return product, err
}

func CreateProduct(ctx context.Context, db *sql.DB, in ProductInput) (*models.Product, error) {
	query := `
		INSERT INTO products (id, name, description, category, image, price, stock_quantity, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), 1)
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		uuid.NewString(), in.Name, in.Description, in.Category, in.Image, in.Price, in.StockQuantity))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id string) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, database.ErrProductNotFound
	}

	product, err := scanProduct(db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// UpdateProduct replaces the product's fields if version still matches the
// stored row; a stale version yields ErrOptimisticLockFailed.
func UpdateProduct(ctx context.Context, db *sql.DB, id string, version int, in ProductInput) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, database.ErrProductNotFound
	}

	query := `
		UPDATE products
		SET name = $1, description = $2, category = $3, image = $4, price = $5, stock_quantity = $6,
		    version = version + 1, updated_at = NOW()
		WHERE id = $7 AND version = $8
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		in.Name, in.Description, in.Category, in.Image, in.Price, in.StockQuantity, id, version))
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update product: %w", err)
	}

	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check product exists: %w", err)
	}
	if !exists {
		return nil, database.ErrProductNotFound
	}
	return nil, database.ErrOptimisticLockFailed
}

func DeleteProduct(ctx context.Context, db *sql.DB, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return database.ErrProductNotFound
	}

	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return database.ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

// DecrementStock fails with ErrInsufficientStock instead of letting stock go negative.
func DecrementStock(ctx context.Context, tx *sql.Tx, productID string, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock_quantity >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrInsufficientStock
	}

	return nil
}

func ListProducts(ctx context.Context, db *sql.DB, f ProductFilter) (*OffsetPage, error) {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize)

	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (f.Page - 1) * f.PageSize
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, productColumns, where, len(args)+1, len(args)+2)

	rows, err := db.QueryContext(ctx, query, append(args, f.PageSize, offset)...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, f.Page, f.PageSize), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
