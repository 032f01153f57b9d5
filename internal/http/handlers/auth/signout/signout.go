package signout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
)

// Service описывает выход из аккаунта.
type Service interface {
	SignOut(ctx context.Context) error
}

// Handler обрабатывает выход. Токены не отзываются, клиент просто забывает токен.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выход
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/sign-out [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", "handlers.auth.signout"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.SignOut(r.Context()); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("signed out", nil))
}
