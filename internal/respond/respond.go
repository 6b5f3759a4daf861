// Package respond writes JSON bodies for handlers and middleware alike.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON writes data with the given status. Encoding failures are logged since
// the status line has already gone out.
func JSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, map[string]string{"error": message}, logger)
}
