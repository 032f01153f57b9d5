// Package subscription содержит бизнес-логику подписок: создание с вычислением
// даты продления, чтение с кешированием и список подписок владельца.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage"
)

// Пагинация списка.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// MsgNotFound сообщение для отсутствующей или чужой подписки.
const MsgNotFound = "subscription not found"

// Repository хранилище подписок.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	ListSubscriptionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.Subscription, error)
}

// Cache кеш прочитанных подписок.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Service реализует операции над подписками.
type Service struct {
	log   *slog.Logger
	repo  Repository
	cache Cache
	now   func() time.Time
}

// NewService создаёт Service. now может быть nil, тогда используется time.Now.
func NewService(log *slog.Logger, repo Repository, cache Cache, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{log: log, repo: repo, cache: cache, now: now}
}

// Create проверяет запрос, вычисляет дату продления и статус, сохраняет подписку.
func (s *Service) Create(ctx context.Context, accountID string, req models.SubscriptionRequest) (*models.Subscription, error) {
	const op = "subscription.Create"
	log := s.log.With(slog.String("op", op), slog.String("account_id", accountID))

	sub, fields := req.ToSubscription(accountID)
	if len(fields) > 0 {
		return nil, apperr.Validation(fields...)
	}
	if fields = Prepare(sub, s.now().UTC()); len(fields) > 0 {
		return nil, apperr.Validation(fields...)
	}

	created, err := s.repo.CreateSubscription(ctx, *sub)
	if err != nil {
		log.Error("failed to create subscription", sl.Err(err))
		return nil, apperr.Internal(err)
	}

	if err = s.cache.Set(ctx, cache.SubscriptionKey(created.ID), created); err != nil {
		log.Warn("failed to cache subscription", sl.Err(err))
	}
	metrics.SubscriptionsCreated.WithLabelValues(string(created.Status)).Inc()
	log.Info("subscription created",
		slog.String("subscription_id", created.ID),
		slog.String("status", string(created.Status)),
	)
	return created, nil
}

// Read возвращает подписку владельца. Чужие подписки неотличимы от отсутствующих.
func (s *Service) Read(ctx context.Context, accountID, id string) (*models.Subscription, error) {
	const op = "subscription.Read"
	log := s.log.With(slog.String("op", op), slog.String("subscription_id", id))

	var cached models.Subscription
	found, err := s.cache.Get(ctx, cache.SubscriptionKey(id), &cached)
	if err != nil {
		log.Warn("failed to read cache", sl.Err(err))
	}
	if found {
		if cached.AccountID != accountID {
			return nil, apperr.NotFound(MsgNotFound)
		}
		return effective(&cached, s.now()), nil
	}

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(MsgNotFound)
		}
		log.Error("failed to get subscription", sl.Err(err))
		return nil, apperr.Internal(err)
	}
	if sub.AccountID != accountID {
		return nil, apperr.NotFound(MsgNotFound)
	}
	if err = s.cache.Set(ctx, cache.SubscriptionKey(id), sub); err != nil {
		log.Warn("failed to cache subscription", sl.Err(err))
	}
	return effective(sub, s.now()), nil
}

// List возвращает подписки владельца. limit ограничивается MaxLimit.
func (s *Service) List(ctx context.Context, accountID string, limit, offset int) ([]*models.Subscription, error) {
	const op = "subscription.List"
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	subs, err := s.repo.ListSubscriptionsByAccount(ctx, accountID, limit, offset)
	if err != nil {
		s.log.Error("failed to list subscriptions", slog.String("op", op), sl.Err(err))
		return nil, apperr.Internal(err)
	}
	now := s.now()
	out := make([]*models.Subscription, 0, len(subs))
	for _, sub := range subs {
		out = append(out, effective(sub, now))
	}
	return out, nil
}
