package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/safar/go-sql-storefront/internal/cart"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/events"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/promo"
	"github.com/safar/go-sql-storefront/internal/store"
)

// CartSession is the shopper's cart as seen by checkout.
type CartSession interface {
	Items(ctx context.Context) ([]cart.Item, error)
	Clear(ctx context.Context) error
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req store.PlaceOrderRequest) (*models.Order, error)
}

type PromoValidator interface {
	Validate(ctx context.Context, code string) (*promo.Result, error)
}

type CheckoutRequest struct {
	UserID          string
	ShippingAddress string
	PromoCode       string
}

// CheckoutService turns a cart into an order. The cart is only cleared once
// the order has committed.
type CheckoutService struct {
	orders    OrderPlacer
	promos    PromoValidator
	publisher events.Publisher
	log       *slog.Logger
}

func NewCheckoutService(orders OrderPlacer, promos PromoValidator, publisher events.Publisher, log *slog.Logger) *CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CheckoutService{orders: orders, promos: promos, publisher: publisher, log: log}
}

func (s *CheckoutService) Checkout(ctx context.Context, session CartSession, req CheckoutRequest) (*models.Order, error) {
	items, err := session.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, database.ErrEmptyCart
	}

	code := promo.NormalizeCode(req.PromoCode)
	if code != "" {
		// Fail fast before opening a transaction; the order writer re-checks under lock.
		if _, err := s.promos.Validate(ctx, code); err != nil {
			return nil, err
		}
	}

	lines := make([]store.OrderLine, len(items))
	for i, it := range items {
		lines[i] = store.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	order, err := s.orders.PlaceOrder(ctx, store.PlaceOrderRequest{
		UserID:          req.UserID,
		Items:           lines,
		PromoCode:       code,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		"order_id", order.ID,
		"user_id", order.UserID,
		"final_amount", order.FinalAmount.String(),
		"items", len(order.Items))

	if err := session.Clear(ctx); err != nil {
		s.log.Error("failed to clear cart after checkout", "order_id", order.ID, "error", err)
	}

	if err := s.publisher.PublishOrderPlaced(ctx, events.NewOrderPlaced(order)); err != nil {
		s.log.Error("failed to publish order event", "order_id", order.ID, "error", err)
	}

	return order, nil
}
