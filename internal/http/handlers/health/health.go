package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler отвечает на GET /health.
type Handler struct {
	log *slog.Logger
	db  Pinger
}

// New создаёт Handler.
func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{log: log, db: db}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.Error("health check failed", slog.String("op", "handlers.health"), sl.Err(err))
		response.JSON(w, r, http.StatusServiceUnavailable, response.Error("storage unavailable"))
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("", map[string]any{
		"status": "ok",
	}))
}
