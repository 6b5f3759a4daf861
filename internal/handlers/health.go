package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/safar/go-sql-storefront/internal/respond"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	db     pinger
	logger *slog.Logger
}

func NewHealthHandler(db pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Database: "up", Timestamp: time.Now().UTC()}
	status := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("health check database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}

	respond.JSON(w, status, resp, h.logger)
}
