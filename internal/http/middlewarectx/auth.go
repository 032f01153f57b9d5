// Package middlewarectx содержит HTTP middleware: проверку bearer-токена и ограничение частоты запросов.
//
// Authenticate пропускает запрос дальше только после того, как токен проверен,
// а аккаунт найден в хранилище. Найденный аккаунт кладётся в контекст запроса.
// Все отказы выглядят для клиента одинаково: 401 с сообщением "unauthorized".
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// AccountKey ключ аккаунта в контексте.
const AccountKey Key = "account"

// MsgUnauthorized единое сообщение для всех отказов.
const MsgUnauthorized = "unauthorized"

const bearerPrefix = "Bearer "

// TokenParser проверяет токен и возвращает его утверждения.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.Claims, error)
}

// AccountFinder находит аккаунт по идентификатору.
type AccountFinder interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
}

// Authenticate возвращает middleware, проверяющий заголовок Authorization.
func Authenticate(parser TokenParser, finder AccountFinder, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, r, log, "missing_header", nil)
				return
			}

			claims, err := parser.ParseToken(token)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, jwt.ErrExpiredToken) {
					reason = "expired_token"
				}
				reject(w, r, log, reason, err)
				return
			}

			acc, err := finder.GetAccount(r.Context(), claims.AccountID)
			if err != nil {
				if apperr.KindOf(err) == apperr.KindInternal {
					response.RenderError(w, r, log, err)
					return
				}
				reject(w, r, log, "account_not_found", err)
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, acc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFromContext возвращает аккаунт, положенный Authenticate.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	acc, ok := ctx.Value(AccountKey).(*models.Account)
	return acc, ok && acc != nil
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := header[len(bearerPrefix):]
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func reject(w http.ResponseWriter, r *http.Request, log *slog.Logger, reason string, err error) {
	metrics.GuardRejections.WithLabelValues(reason).Inc()
	log.Warn("request rejected", slog.String("reason", reason), sl.Err(err))
	response.RenderError(w, r, log, apperr.Unauthorized(MsgUnauthorized))
}
