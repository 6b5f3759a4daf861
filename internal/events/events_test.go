package events

import (
	"context"
	"testing"
	"time"

	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/shopspring/decimal"
)

func TestNewOrderPlaced(t *testing.T) {
	code := "SAVE10"
	placed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	order := &models.Order{
		ID:          "o1",
		UserID:      "u1",
		TotalAmount: decimal.RequireFromString("20.00"),
		FinalAmount: decimal.RequireFromString("18.00"),
		PromoCode:   &code,
		CreatedAt:   placed,
		Items: []models.OrderItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
	}

	ev := NewOrderPlaced(order)

	if ev.Type != TypeOrderPlaced || ev.OrderID != "o1" || ev.UserID != "u1" {
		t.Errorf("Unexpected event header %+v", ev)
	}
	if ev.PromoCode != "SAVE10" || !ev.FinalAmount.Equal(order.FinalAmount) {
		t.Errorf("Unexpected event amounts %+v", ev)
	}
	if len(ev.Items) != 2 || ev.Items[0] != (OrderLine{ProductID: "p1", Quantity: 2}) {
		t.Errorf("Unexpected event items %+v", ev.Items)
	}
	if !ev.PlacedAt.Equal(placed) {
		t.Errorf("Expected placed at %s, got %s", placed, ev.PlacedAt)
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.PublishOrderPlaced(context.Background(), OrderPlaced{}); err != nil {
		t.Errorf("NopPublisher returned %v", err)
	}
}
