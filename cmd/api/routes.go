package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/safar/go-sql-storefront/internal/auth"
	"github.com/safar/go-sql-storefront/internal/cart"
	"github.com/safar/go-sql-storefront/internal/config"
	"github.com/safar/go-sql-storefront/internal/handlers"
	"github.com/safar/go-sql-storefront/internal/middleware"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/promo"
	"github.com/safar/go-sql-storefront/internal/service"
	"github.com/safar/go-sql-storefront/internal/store"
)

type routerDeps struct {
	cfg       *config.Config
	log       *slog.Logger
	db        *sql.DB
	tokens    *auth.TokenService
	resolver  *auth.Resolver
	accounts  *service.AccountService
	checkout  *service.CheckoutService
	validator *promo.Validator
	carts     cart.Opener
	products  store.Products
	promos    store.Promos
	orders    store.Orders
	favorites store.Favorites
}

func newRouter(d routerDeps) http.Handler {
	authn := middleware.NewAuth(d.resolver, d.cfg.Auth.CookieSecure, d.log)

	healthHandler := handlers.NewHealthHandler(d.db, d.log)
	authHandler := handlers.NewAuthHandler(d.accounts, d.tokens.TTL(), d.cfg.Auth.CookieSecure, d.log)
	productHandler := handlers.NewProductHandler(d.products, d.log)
	cartHandler := handlers.NewCartHandler(d.carts, d.products, d.log)
	promoHandler := handlers.NewPromoHandler(d.validator, d.promos, d.log)
	checkoutHandler := handlers.NewCheckoutHandler(d.checkout, d.carts, d.log)
	orderHandler := handlers.NewOrderHandler(d.orders, d.log)
	favoritesHandler := handlers.NewFavoritesHandler(d.favorites, d.log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(d.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Cookies carry both the cart and the session, so credentials are allowed.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{id}", productHandler.GetProduct)

		r.Post("/promo/validate", promoHandler.ValidatePromo)

		r.Group(func(r chi.Router) {
			r.Use(authn.Optional)
			r.Get("/auth/session", authHandler.Session)

			r.Get("/cart", cartHandler.GetCart)
			r.Post("/cart", cartHandler.AddToCart)
			r.Put("/cart", cartHandler.UpdateCart)
			r.Delete("/cart", cartHandler.RemoveFromCart)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.Required)

			r.Get("/user", authHandler.Me)
			r.Post("/user/change-password", authHandler.ChangePassword)

			r.Post("/checkout", checkoutHandler.Checkout)

			r.Get("/orders", orderHandler.ListOrders)
			r.Get("/orders/{id}", orderHandler.GetOrder)

			r.Get("/favorites", favoritesHandler.ListFavorites)
			r.Post("/favorites", favoritesHandler.AddFavorite)
			r.Delete("/favorites", favoritesHandler.RemoveFavorite)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authn.Required)
			r.Use(authn.RequireRole(models.RoleAdmin))

			r.Get("/promo", promoHandler.ListPromos)
			r.Post("/promo", promoHandler.CreatePromo)
			r.Delete("/promo/{id}", promoHandler.DeactivatePromo)

			r.Get("/products", productHandler.ListProducts)
			r.Post("/products", productHandler.CreateProduct)
			r.Put("/products/{id}", productHandler.UpdateProduct)
			r.Delete("/products/{id}", productHandler.DeleteProduct)
		})
	})

	return r
}
