package handle

import (
	"context"
	"net/http"
	"time"

	ports "bustrack/internal/user-service/core/ports/driven"
)

type HealthHandler struct {
	db ports.IDB
}

func NewHealthHandler(db ports.IDB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (hh *HealthHandler) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := hh.db.IsAlive(ctx); err != nil {
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
