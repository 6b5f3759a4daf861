package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/safar/go-sql-storefront/internal/cart"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/middleware"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/respond"
	"github.com/safar/go-sql-storefront/internal/service"
)

type checkoutService interface {
	Checkout(ctx context.Context, session service.CartSession, req service.CheckoutRequest) (*models.Order, error)
}

type CheckoutHandler struct {
	checkout checkoutService
	carts    cart.Opener
	log      *slog.Logger
}

func NewCheckoutHandler(checkout checkoutService, carts cart.Opener, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, carts: carts, log: log}
}

type checkoutRequest struct {
	ShippingAddress string `json:"shippingAddress" validate:"max=1000"`
	PromoCode       string `json:"promoCode" validate:"max=64"`
}

type checkoutResponse struct {
	OrderID     string `json:"orderId"`
	Message     string `json:"message"`
	FinalAmount string `json:"finalAmount"`
}

// Checkout handles POST /api/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated", h.log)
		return
	}

	var req checkoutRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}

	session := h.carts.Open(w, r)
	order, err := h.checkout.Checkout(r.Context(), session, service.CheckoutRequest{
		UserID:          user.ID,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		PromoCode:       req.PromoCode,
	})
	if err != nil {
		h.writeCheckoutError(w, user.ID, err)
		return
	}

	respond.JSON(w, http.StatusCreated, checkoutResponse{
		OrderID:     order.ID,
		Message:     "Order created successfully",
		FinalAmount: order.FinalAmount.StringFixed(2),
	}, h.log)
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, userID string, err error) {
	if status, msg, ok := promoErrorStatus(err); ok {
		respond.Error(w, status, msg, h.log)
		return
	}

	switch {
	case errors.Is(err, database.ErrEmptyCart):
		respond.Error(w, http.StatusBadRequest, "Cart is empty", h.log)
	case errors.Is(err, database.ErrProductsUnavailable):
		// The wrapped message lists the offending product ids.
		respond.Error(w, http.StatusBadRequest, "Products not found: "+detail(err, database.ErrProductsUnavailable), h.log)
	case errors.Is(err, database.ErrInsufficientStock):
		respond.Error(w, http.StatusBadRequest, "Insufficient stock: "+detail(err, database.ErrInsufficientStock), h.log)
	case errors.Is(err, database.ErrUserNotFound):
		respond.Error(w, http.StatusUnauthorized, "User not found", h.log)
	default:
		h.log.Error("checkout failed", "user_id", userID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to create order", h.log)
	}
}

// detail returns what a "sentinel: detail" wrap adds after the sentinel.
func detail(err, sentinel error) string {
	prefix := sentinel.Error() + ": "
	msg := err.Error()
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}
