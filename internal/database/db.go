package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/safar/go-sql-storefront/internal/config"
)

const connectAttempts = 5

// NewConnection opens the pool and waits for Postgres to answer a ping,
// retrying a few times so the API can start alongside the database container.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	for attempt := 1; ; attempt++ {
		err = Ping(ctx, db)
		if err == nil {
			return db, nil
		}
		if attempt == connectAttempts {
			db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}

		log.Warn("database not ready", "attempt", attempt, "error", err)
		select {
		case <-time.After(time.Duration(attempt) * time.Second):
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		}
	}
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}
