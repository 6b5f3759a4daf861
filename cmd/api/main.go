package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/safar/go-sql-storefront/internal/auth"
	"github.com/safar/go-sql-storefront/internal/cart"
	"github.com/safar/go-sql-storefront/internal/config"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/events"
	"github.com/safar/go-sql-storefront/internal/logger"
	"github.com/safar/go-sql-storefront/internal/promo"
	"github.com/safar/go-sql-storefront/internal/service"
	"github.com/safar/go-sql-storefront/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, &cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	log.Info("connected to database")

	carts, closeCarts, err := newCartOpener(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCarts()

	publisher, closePublisher, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	users := store.Users{DB: db}
	products := store.Products{DB: db}
	promos := store.Promos{DB: db}
	orders := store.Orders{DB: db}
	favorites := store.Favorites{DB: db}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	validator := promo.NewValidator(promos)

	deps := routerDeps{
		cfg:       cfg,
		log:       log,
		db:        db,
		tokens:    tokens,
		resolver:  auth.NewResolver(tokens, users),
		accounts:  service.NewAccountService(users, tokens),
		checkout:  service.NewCheckoutService(orders, validator, publisher, log),
		validator: validator,
		carts:     carts,
		products:  products,
		promos:    promos,
		orders:    orders,
		favorites: favorites,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			"port", cfg.Server.Port,
			"cart_backend", cfg.Cart.Backend,
			"events", cfg.Events.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

func newCartOpener(ctx context.Context, cfg *config.Config, log *slog.Logger) (cart.Opener, func(), error) {
	if cfg.Cart.Backend != config.CartBackendRedis {
		return cart.CookieOpener{Retention: cfg.Cart.MaxAge, Secure: cfg.Auth.CookieSecure, Log: log}, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("connected to redis", "addr", cfg.Redis.Addr)

	opener := cart.RedisOpener{
		Store:     cart.NewStore(cart.NewRedisSessionStore(client), cfg.Cart.MaxAge, log),
		Retention: cfg.Cart.MaxAge,
		Secure:    cfg.Auth.CookieSecure,
	}
	return opener, func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}, nil
}

func newPublisher(cfg *config.Config, log *slog.Logger) (events.Publisher, func(), error) {
	if cfg.Events.AMQPURL == "" {
		log.Info("order events disabled")
		return events.NopPublisher{}, func() {}, nil
	}

	pool, err := events.NewChannelPool(cfg.Events.AMQPURL, cfg.Events.Queue, cfg.Events.PoolSize, log)
	if err != nil {
		return nil, nil, err
	}
	return events.NewRabbitPublisher(pool, log), pool.Close, nil
}
