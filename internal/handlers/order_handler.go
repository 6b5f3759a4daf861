package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/middleware"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/respond"
	"github.com/safar/go-sql-storefront/internal/store"
)

type orderReader interface {
	GetOrderForUser(ctx context.Context, userID, id string) (*models.Order, error)
	ListOrdersCursor(ctx context.Context, userID, cursor string, limit int) (*store.CursorPage, error)
}

type OrderHandler struct {
	orders orderReader
	log    *slog.Logger
}

func NewOrderHandler(orders orderReader, log *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	page, err := h.orders.ListOrdersCursor(r.Context(), user.ID, q.Get("cursor"), limit)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCursor) {
			respond.Error(w, http.StatusBadRequest, "Invalid cursor", h.log)
			return
		}
		h.log.Error("failed to list orders", "user_id", user.ID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch orders", h.log)
		return
	}

	respond.JSON(w, http.StatusOK, page, h.log)
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	id := chi.URLParam(r, "id")

	order, err := h.orders.GetOrderForUser(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			respond.Error(w, http.StatusNotFound, "Order not found", h.log)
			return
		}
		h.log.Error("failed to get order", "order_id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch order", h.log)
		return
	}

	respond.JSON(w, http.StatusOK, order, h.log)
}
