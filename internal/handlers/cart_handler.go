package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/safar/go-sql-storefront/internal/cart"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/respond"
)

type productGetter interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// CartHandler serves the shopper's cart for whichever session backend the
// opener is bound to.
type CartHandler struct {
	carts    cart.Opener
	products productGetter
	log      *slog.Logger
}

func NewCartHandler(carts cart.Opener, products productGetter, log *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, products: products, log: log}
}

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

type setQuantityRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type removeFromCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

type cartLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *models.Product `json:"product,omitempty"`
}

type cartResponse struct {
	Items []cartLine `json:"items"`
	Count int        `json:"count"`
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	session := h.carts.Open(w, r)
	h.writeCart(w, r, session, http.StatusOK)
}

// AddToCart handles POST /api/cart
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	product, err := h.products.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			respond.Error(w, http.StatusNotFound, "Product not found", h.log)
			return
		}
		h.log.Error("failed to look up product for cart", "product_id", req.ProductID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to update cart", h.log)
		return
	}

	session := h.carts.Open(w, r)
	if err := session.Add(r.Context(), product.ID, quantity); err != nil {
		h.writeCartError(w, err)
		return
	}

	h.writeCart(w, r, session, http.StatusOK)
}

// UpdateCart handles PUT /api/cart
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}

	session := h.carts.Open(w, r)
	if err := session.SetQuantity(r.Context(), req.ProductID, req.Quantity); err != nil {
		h.writeCartError(w, err)
		return
	}

	h.writeCart(w, r, session, http.StatusOK)
}

// RemoveFromCart handles DELETE /api/cart
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req removeFromCartRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}

	session := h.carts.Open(w, r)
	if err := session.Remove(r.Context(), req.ProductID); err != nil {
		h.writeCartError(w, err)
		return
	}

	h.writeCart(w, r, session, http.StatusOK)
}

func (h *CartHandler) writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		respond.Error(w, http.StatusBadRequest, "Quantity must be positive", h.log)
	case errors.Is(err, cart.ErrQuantityTooLarge):
		respond.Error(w, http.StatusBadRequest, "Quantity is too large", h.log)
	case errors.Is(err, cart.ErrInvalidProduct):
		respond.Error(w, http.StatusBadRequest, "productId is required", h.log)
	case errors.Is(err, cart.ErrNotInCart):
		respond.Error(w, http.StatusNotFound, "Product not found in cart", h.log)
	default:
		h.log.Error("failed to update cart", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to update cart", h.log)
	}
}

// writeCart answers with the current lines. Product details are attached
// when the product still exists; a lookup failure never hides the line.
func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, session *cart.Session, status int) {
	items, err := session.Items(r.Context())
	if err != nil {
		h.log.Error("failed to load cart", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load cart", h.log)
		return
	}

	resp := cartResponse{Items: make([]cartLine, 0, len(items))}
	for _, it := range items {
		line := cartLine{ProductID: it.ProductID, Quantity: it.Quantity}
		product, err := h.products.GetProduct(r.Context(), it.ProductID)
		switch {
		case err == nil:
			line.Product = product
		case !errors.Is(err, database.ErrProductNotFound):
			h.log.Warn("failed to load cart product", "product_id", it.ProductID, "error", err)
		}
		resp.Items = append(resp.Items, line)
		resp.Count += it.Quantity
	}

	respond.JSON(w, status, resp, h.log)
}
