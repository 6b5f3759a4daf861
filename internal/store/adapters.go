package store

import (
	"context"
	"database/sql"

	"github.com/safar/go-sql-storefront/internal/models"
)

// The adapter types bind the package functions to a pool
// so callers can depend on narrow interfaces.
type Users struct{ DB *sql.DB }

func (u Users) GetUser(ctx context.Context, id string) (*models.User, error) {
	return GetUser(ctx, u.DB, id)
}

func (u Users) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return GetUserByEmail(ctx, u.DB, email)
}

func (u Users) CreateUser(ctx context.Context, nu NewUser) (*models.User, error) {
	return CreateUser(ctx, u.DB, nu)
}

func (u Users) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return UpdatePassword(ctx, u.DB, id, passwordHash)
}

type Products struct{ DB *sql.DB }

func (p Products) ListProducts(ctx context.Context, f ProductFilter) (*OffsetPage, error) {
	return ListProducts(ctx, p.DB, f)
}

func (p Products) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return GetProduct(ctx, p.DB, id)
}

func (p Products) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	return CreateProduct(ctx, p.DB, in)
}

func (p Products) UpdateProduct(ctx context.Context, id string, version int, in ProductInput) (*models.Product, error) {
	return UpdateProduct(ctx, p.DB, id, version, in)
}

func (p Products) DeleteProduct(ctx context.Context, id string) error {
	return DeleteProduct(ctx, p.DB, id)
}

type Promos struct{ DB *sql.DB }

func (p Promos) FindPromoByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	return FindPromoByCode(ctx, p.DB, code)
}

func (p Promos) CreatePromo(ctx context.Context, in NewPromo) (*models.PromoCode, error) {
	return CreatePromo(ctx, p.DB, in)
}

func (p Promos) ListPromos(ctx context.Context) ([]models.PromoCode, error) {
	return ListPromos(ctx, p.DB)
}

func (p Promos) DeactivatePromo(ctx context.Context, id string) error {
	return DeactivatePromo(ctx, p.DB, id)
}

type Orders struct{ DB *sql.DB }

func (o Orders) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	return PlaceOrder(ctx, o.DB, req)
}

func (o Orders) GetOrderForUser(ctx context.Context, userID, id string) (*models.Order, error) {
	return GetOrderForUser(ctx, o.DB, userID, id)
}

func (o Orders) ListOrdersCursor(ctx context.Context, userID, cursor string, limit int) (*CursorPage, error) {
	return ListOrdersCursor(ctx, o.DB, userID, cursor, limit)
}

type Favorites struct{ DB *sql.DB }

func (f Favorites) ListFavorites(ctx context.Context, userID string) ([]models.Product, error) {
	return ListFavorites(ctx, f.DB, userID)
}

func (f Favorites) AddFavorite(ctx context.Context, userID, productID string) error {
	return AddFavorite(ctx, f.DB, userID, productID)
}

func (f Favorites) RemoveFavorite(ctx context.Context, userID, productID string) error {
	return RemoveFavorite(ctx, f.DB, userID, productID)
}
