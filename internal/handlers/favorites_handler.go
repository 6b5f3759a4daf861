package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/middleware"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/respond"
)

type favoriteStore interface {
	ListFavorites(ctx context.Context, userID string) ([]models.Product, error)
	AddFavorite(ctx context.Context, userID, productID string) error
	RemoveFavorite(ctx context.Context, userID, productID string) error
}

type FavoritesHandler struct {
	favorites favoriteStore
	log       *slog.Logger
}

func NewFavoritesHandler(favorites favoriteStore, log *slog.Logger) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites, log: log}
}

type favoriteRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// ListFavorites handles GET /api/favorites
func (h *FavoritesHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	favorites, err := h.favorites.ListFavorites(r.Context(), user.ID)
	if err != nil {
		h.log.Error("failed to list favorites", "user_id", user.ID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch favorites", h.log)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{"favorites": favorites}, h.log)
}

// AddFavorite handles POST /api/favorites
func (h *FavoritesHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var req favoriteRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}

	if err := h.favorites.AddFavorite(r.Context(), user.ID, req.ProductID); err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			respond.Error(w, http.StatusNotFound, "Product not found", h.log)
			return
		}
		h.log.Error("failed to add favorite", "user_id", user.ID, "product_id", req.ProductID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to add favorite", h.log)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Product added to favorites"}, h.log)
}

// RemoveFavorite handles DELETE /api/favorites
func (h *FavoritesHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var req favoriteRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}

	if err := h.favorites.RemoveFavorite(r.Context(), user.ID, req.ProductID); err != nil {
		h.log.Error("failed to remove favorite", "user_id", user.ID, "product_id", req.ProductID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to remove favorite", h.log)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Product removed from favorites"}, h.log)
}
