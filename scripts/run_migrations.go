package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/safar/go-sql-storefront/internal/config"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/logger"
)

func main() {
	log := logger.New("info")

	if len(os.Args) < 2 {
		log.Error("usage: go run scripts/run_migrations.go [up|down]")
		os.Exit(2)
	}
	direction := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	log = logger.New(cfg.LogLevel)

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &cfg.Database, log)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	n, err := database.Migrate(ctx, db, "migrations", direction, log)
	if err != nil {
		log.Error("migrate", "direction", direction, "error", err)
		os.Exit(1)
	}

	log.Info("migrations complete", slog.Int("count", n), slog.String("direction", direction))
}
