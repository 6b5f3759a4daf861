package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/pricing"
	"github.com/safar/go-sql-storefront/internal/promo"
)

type PlaceOrderRequest struct {
	UserID          string
	Items           []OrderLine
	PromoCode       string
	ShippingAddress string
}

type OrderLine struct {
	ProductID string
	Quantity  int
}

// PlaceOrder prices every line against the current catalog and writes the
// order, its items, the stock decrements and any promo redemption in one
// serializable transaction. Nothing is written when it returns an error.
func PlaceOrder(ctx context.Context, db *sql.DB, req PlaceOrderRequest) (*models.Order, error) {
	lines := mergeLines(req.Items)
	if len(lines) == 0 {
		return nil, database.ErrEmptyCart
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		return nil, database.ErrUserNotFound
	}
	code := promo.NormalizeCode(req.PromoCode)

	var order *models.Order

	err := database.WithRetry(ctx, db, database.OrderTxOptions(), func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)",
			req.UserID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}
		if !exists {
			return database.ErrUserNotFound
		}

		products, err := lockProducts(ctx, tx, lines)
		if err != nil {
			return err
		}

		priced := make([]pricing.Line, 0, len(lines))
		for _, line := range lines {
			p := products[line.ProductID]
			if p.StockQuantity < line.Quantity {
				return fmt.Errorf("%w: %s", database.ErrInsufficientStock, p.Name)
			}
			priced = append(priced, pricing.Line{UnitPrice: p.Price, Quantity: line.Quantity})
		}
		total := pricing.Subtotal(priced)

		now := time.Now()
		var applied *models.PromoCode
		if code != "" {
			applied, err = lockPromo(ctx, tx, code, now)
			if err != nil {
				return err
			}
		}

		o := &models.Order{
			ID:              uuid.NewString(),
			UserID:          req.UserID,
			Status:          models.OrderStatusPending,
			TotalAmount:     total,
			ShippingAddress: req.ShippingAddress,
		}
		if applied != nil {
			o.DiscountPercent = applied.DiscountPercent
			o.PromoCode = &applied.Code
		}
		o.FinalAmount, err = pricing.ApplyDiscount(total, o.DiscountPercent)
		if err != nil {
			return fmt.Errorf("apply discount: %w", err)
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (id, user_id, status, total_amount, discount_percent, final_amount,
			                     promo_code, shipping_address, created_at, updated_at, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW(), 1)
			 RETURNING created_at, updated_at, version`,
			o.ID, o.UserID, o.Status, o.TotalAmount, o.DiscountPercent, o.FinalAmount,
			o.PromoCode, o.ShippingAddress).Scan(&o.CreatedAt, &o.UpdatedAt, &o.Version)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		o.Items = make([]models.OrderItem, 0, len(lines))
		for n, line := range lines {
			p := products[line.ProductID]
			item := models.OrderItem{
				ID:              uuid.NewString(),
				OrderID:         o.ID,
				ProductID:       p.ID,
				ProductName:     p.Name,
				Quantity:        line.Quantity,
				PriceAtPurchase: p.Price,
				Subtotal:        pricing.LineTotal(p.Price, line.Quantity),
			}

			err = tx.QueryRowContext(ctx,
				`INSERT INTO order_items (id, order_id, line_number, product_id, quantity, price_at_purchase, subtotal, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
				 RETURNING created_at`,
				item.ID, item.OrderID, n+1, item.ProductID, item.Quantity, item.PriceAtPurchase, item.Subtotal).Scan(&item.CreatedAt)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			o.Items = append(o.Items, item)
		}

		for _, line := range lines {
			if err := DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		if applied != nil {
			if err := recordPromoUse(ctx, tx, applied.ID, o.UserID, o.ID, now); err != nil {
				return err
			}
		}

		order = o
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// mergeLines folds duplicate products into one line, keeping first-seen order.
// Product ids that parse as UUIDs are canonicalized first.
func mergeLines(in []OrderLine) []OrderLine {
	out := make([]OrderLine, 0, len(in))
	index := make(map[string]int, len(in))
	for _, l := range in {
		if l.Quantity <= 0 {
			continue
		}
		if u, err := uuid.Parse(l.ProductID); err == nil {
			l.ProductID = u.String()
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

// lockProducts row-locks every referenced product in id order. Any id that
// does not resolve to a priced product fails the whole order.
func lockProducts(ctx context.Context, tx *sql.Tx, lines []OrderLine) (map[string]*models.Product, error) {
	ids := make([]string, 0, len(lines))
	var missing []string
	for _, l := range lines {
		if _, err := uuid.Parse(l.ProductID); err != nil {
			missing = append(missing, l.ProductID)
			continue
		}
		ids = append(ids, l.ProductID)
	}
	sort.Strings(ids)

	products := make(map[string]*models.Product, len(ids))
	if len(ids) > 0 {
		rows, err := tx.QueryContext(ctx,
			`SELECT `+productColumns+`
			 FROM products
			 WHERE id = ANY($1::uuid[])
			 ORDER BY id
			 FOR UPDATE`,
			pq.Array(ids))
		if err != nil {
			return nil, fmt.Errorf("lock products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return nil, fmt.Errorf("scan product: %w", err)
			}
			products[p.ID] = p
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows error: %w", err)
		}
	}

	for _, id := range ids {
		if p, ok := products[id]; !ok || !p.Available() {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", database.ErrProductsUnavailable, strings.Join(missing, ", "))
	}

	return products, nil
}

const orderColumns = `id, user_id, status, total_amount, discount_percent, final_amount, promo_code,
	shipping_address, created_at, updated_at, version`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	order := &models.Order{}
	var promoCode sql.NullString
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.TotalAmount,
		&order.DiscountPercent,
		&order.FinalAmount,
		&promoCode,
		&order.ShippingAddress,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		return nil, err
	}
	if promoCode.Valid {
		order.PromoCode = &promoCode.String
	}
	return order, nil
}

// GetOrderForUser hides orders owned by someone else behind ErrOrderNotFound.
func GetOrderForUser(ctx context.Context, db *sql.DB, userID, id string) (*models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, database.ErrOrderNotFound
	}

	var order *models.Order
	err := database.WithTransaction(ctx, db, database.SnapshotTxOptions(), func(tx *sql.Tx) error {
		var err error
		order, err = scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}

		items, err := orderItems(ctx, tx, []string{order.ID})
		if err != nil {
			return err
		}
		order.Items = items[order.ID]
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, userID string, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	_, limit = normalizePage(1, limit)

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	args := []any{userID, limit + 1}
	if cursorData != nil {
		query = `SELECT ` + orderColumns + `
			FROM orders
			WHERE user_id = $1
			  AND (created_at, id) < ($3, $4)
			ORDER BY created_at DESC, id DESC
			LIMIT $2`
		args = append(args, cursorData.CreatedAt, cursorData.ID)
	}

	orders := []models.Order{}
	var hasMore bool
	err = database.WithTransaction(ctx, db, database.SnapshotTxOptions(), func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			order, err := scanOrder(rows)
			if err != nil {
				return fmt.Errorf("scan order: %w", err)
			}
			orders = append(orders, *order)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		// pq cannot run the items query while this result set is open.
		rows.Close()

		if len(orders) > limit {
			hasMore = true
			orders = orders[:limit]
		}
		if len(orders) == 0 {
			return nil
		}

		ids := make([]string, len(orders))
		for i := range orders {
			ids[i] = orders[i].ID
		}
		items, err := orderItems(ctx, tx, ids)
		if err != nil {
			return err
		}
		for i := range orders {
			orders[i].Items = items[orders[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var nextCursor string
	if hasMore {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func orderItems(ctx context.Context, tx *sql.Tx, orderIDs []string) (map[string][]models.OrderItem, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), oi.quantity,
		        oi.price_at_purchase, oi.subtotal, oi.created_at
		 FROM order_items oi
		 LEFT JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1::uuid[])
		 ORDER BY oi.order_id, oi.line_number`,
		pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]models.OrderItem, len(orderIDs))
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.PriceAtPurchase,
			&item.Subtotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}
