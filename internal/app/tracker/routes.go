// Package tracker собирает HTTP-сервис учёта аккаунтов и подписок.
package tracker

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/signin"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/signout"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/user/me"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
)

// AccountService операции с аккаунтами, нужные маршрутам.
type AccountService interface {
	SignUp(ctx context.Context, name, email, password string) (*auth.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*auth.AuthResult, error)
	SignOut(ctx context.Context) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
}

// SubscriptionService операции с подписками, нужные маршрутам.
type SubscriptionService interface {
	Create(ctx context.Context, accountID string, req models.SubscriptionRequest) (*models.Subscription, error)
	Read(ctx context.Context, accountID, id string) (*models.Subscription, error)
	List(ctx context.Context, accountID string, limit, offset int) ([]*models.Subscription, error)
}

// Deps зависимости маршрутов.
type Deps struct {
	Accounts      AccountService
	Subscriptions SubscriptionService
	Tokens        middlewarectx.TokenParser
	DB            health.Pinger
	RateLimit     config.RateLimit
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middlewarectx.RateLimit(d.RateLimit, logger))
			r.Post("/sign-up", signup.New(logger, d.Accounts).ServeHTTP)
			r.Post("/sign-in", signin.New(logger, d.Accounts).ServeHTTP)
			r.Post("/sign-out", signout.New(logger, d.Accounts).ServeHTTP)
		})

		// Группа с проверкой токена
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Authenticate(d.Tokens, d.Accounts, logger))
			r.Get("/users/me", me.New(logger).ServeHTTP)
			r.Post("/subscriptions", create.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/subscriptions", list.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, d.Subscriptions).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, d.DB).ServeHTTP)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
