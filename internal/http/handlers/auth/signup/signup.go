// Package signup реализует HTTP-обработчик регистрации аккаунта.
//
// Обработчик декодирует JSON, проверяет наличие полей и передаёт данные AccountManager.
// Правила имени, email и пароля проверяются в бизнес-логике, ошибки отдаются с перечнем полей.
package signup

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
)

// Request входные данные регистрации.
type Request struct {
	Name     string `json:"name" validate:"required" example:"alice"`
	Email    string `json:"email" validate:"required" example:"alice@example.com"`
	Password string `json:"password" validate:"required" example:"s3cret-pass"`
}

// Service описывает бизнес-логику регистрации.
type Service interface {
	SignUp(ctx context.Context, name, email, password string) (*auth.AuthResult, error)
}

// Handler обрабатывает запросы регистрации.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: response.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация аккаунта
// @Description Создаёт аккаунт и возвращает токен доступа.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Данные аккаунта"
// @Success 201 {object} response.Response "Аккаунт создан"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/sign-up [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signup"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.RenderError(w, r, log, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("account signed up", slog.String("account_id", res.Account.ID))
	response.JSON(w, r, http.StatusCreated, response.OK("account created", res))
}
