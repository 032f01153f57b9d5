// Package list реализует HTTP-обработчик списка подписок текущего аккаунта.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Service описывает постраничную выборку подписок владельца.
type Service interface {
	List(ctx context.Context, accountID string, limit, offset int) ([]*models.Subscription, error)
}

// Handler обрабатывает GET /subscriptions.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список подписок
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	acc, ok := middlewarectx.AccountFromContext(r.Context())
	if !ok {
		response.RenderError(w, r, log, apperr.Unauthorized(middlewarectx.MsgUnauthorized))
		return
	}

	// Некорректные значения заменяются значениями по умолчанию в сервисе.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	res, err := h.service.List(r.Context(), acc.ID, limit, offset)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("list subscriptions", slog.Int("count", len(res)))
	response.JSON(w, r, http.StatusOK, response.OK("", map[string]any{
		"count":         len(res),
		"subscriptions": res,
	}))
}
