// Package events announces committed orders to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/shopspring/decimal"
)

const TypeOrderPlaced = "order.placed"

type OrderPlaced struct {
	Type        string          `json:"type"`
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	PromoCode   string          `json:"promo_code,omitempty"`
	Items       []OrderLine     `json:"items"`
	PlacedAt    time.Time       `json:"placed_at"`
}

type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func NewOrderPlaced(o *models.Order) OrderPlaced {
	ev := OrderPlaced{
		Type:        TypeOrderPlaced,
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		FinalAmount: o.FinalAmount,
		Items:       make([]OrderLine, len(o.Items)),
		PlacedAt:    o.CreatedAt,
	}
	if o.PromoCode != nil {
		ev.PromoCode = *o.PromoCode
	}
	for i, it := range o.Items {
		ev.Items[i] = OrderLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return ev
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
