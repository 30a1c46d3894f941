package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"babytrack/internal/log"
)

// health answers liveness probes.
func health(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

// readiness answers readiness probes by pinging the database.
func readiness(db *sql.DB, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				logger.Warn("readiness probe failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"}, logger)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, logger)
	}
}
