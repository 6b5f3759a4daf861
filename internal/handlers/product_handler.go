package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/respond"
	"github.com/safar/go-sql-storefront/internal/store"
	"github.com/shopspring/decimal"
)

type productStore interface {
	ListProducts(ctx context.Context, f store.ProductFilter) (*store.OffsetPage, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, in store.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, version int, in store.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductHandler serves the public catalog and its admin maintenance.
type ProductHandler struct {
	products productStore
	log      *slog.Logger
}

func NewProductHandler(products productStore, log *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, log: log}
}

// productRequest requires a positive price: checkout treats an unpriced
// product as unavailable, so the catalog never accepts one.
type productRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	Category      string          `json:"category" validate:"max=64"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
	Version       int             `json:"version"`
}

func (p productRequest) input() store.ProductInput {
	return store.ProductInput{
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Image:         p.Image,
		Price:         p.Price.Round(2),
		StockQuantity: p.StockQuantity,
	}
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	result, err := h.products.ListProducts(r.Context(), store.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.log.Error("failed to list products", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch products", h.log)
		return
	}

	respond.JSON(w, http.StatusOK, result, h.log)
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			respond.Error(w, http.StatusNotFound, "Product not found", h.log)
			return
		}
		h.log.Error("failed to get product", "product_id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch product", h.log)
		return
	}

	respond.JSON(w, http.StatusOK, product, h.log)
}

// CreateProduct handles POST /api/admin/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}
	if !req.Price.Round(2).IsPositive() {
		respond.Error(w, http.StatusBadRequest, "price must be positive", h.log)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), req.input())
	if err != nil {
		h.log.Error("failed to create product", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to create product", h.log)
		return
	}

	respond.JSON(w, http.StatusCreated, product, h.log)
	h.log.Info("product created", "product_id", product.ID)
}

// UpdateProduct handles PUT /api/admin/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req productRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}
	if !req.Price.Round(2).IsPositive() {
		respond.Error(w, http.StatusBadRequest, "price must be positive", h.log)
		return
	}
	if req.Version < 1 {
		respond.Error(w, http.StatusBadRequest, "version is required", h.log)
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), id, req.Version, req.input())
	if err != nil {
		switch {
		case errors.Is(err, database.ErrProductNotFound):
			respond.Error(w, http.StatusNotFound, "Product not found", h.log)
		case errors.Is(err, database.ErrOptimisticLockFailed):
			respond.Error(w, http.StatusConflict, "Product was modified by another request", h.log)
		default:
			h.log.Error("failed to update product", "product_id", id, "error", err)
			respond.Error(w, http.StatusInternalServerError, "Failed to update product", h.log)
		}
		return
	}

	respond.JSON(w, http.StatusOK, product, h.log)
}

// DeleteProduct handles DELETE /api/admin/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, database.ErrProductNotFound):
			respond.Error(w, http.StatusNotFound, "Product not found", h.log)
		case errors.Is(err, database.ErrProductInUse):
			respond.Error(w, http.StatusConflict, "Product has orders and cannot be deleted", h.log)
		default:
			h.log.Error("failed to delete product", "product_id", id, "error", err)
			respond.Error(w, http.StatusInternalServerError, "Failed to delete product", h.log)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
