package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/response"
)

// Pinger checks the liveness of a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health.
func NewHealthHandler(db, queue Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"database": "ok", "queue": "ok"}
		healthy := true

		if err := db.Ping(ctx); err != nil {
			status["database"] = "unreachable"
			healthy = false
		}
		if err := queue.Ping(ctx); err != nil {
			status["queue"] = "unreachable"
			healthy = false
		}

		if !healthy {
			response.Error(w, http.StatusServiceUnavailable, "UNHEALTHY", "A backing service is unreachable", status)
			return
		}
		response.JSON(w, status)
	}
}
