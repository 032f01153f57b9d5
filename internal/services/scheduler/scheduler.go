// Package scheduler содержит фоновые задачи: перевод просроченных подписок в expired
// и публикацию напоминаний о предстоящем продлении.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Repository выборки и обновления подписок для фоновых задач.
type Repository interface {
	ExpireDue(ctx context.Context, now time.Time) ([]string, error)
	FindRenewingBetween(ctx context.Context, from, to time.Time) ([]*models.RenewalReminder, error)
}

// Publisher отправляет сообщения в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Invalidator удаляет устаревшие записи кеша.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Service выполняет фоновые задачи.
type Service struct {
	log    *slog.Logger
	repo   Repository
	pub    Publisher
	cache  Invalidator
	window time.Duration
	now    func() time.Time
}

// NewService создаёт Service. window задаёт горизонт напоминаний.
func NewService(log *slog.Logger, repo Repository, pub Publisher, cache Invalidator, window time.Duration, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{log: log, repo: repo, pub: pub, cache: cache, window: window, now: now}
}

// ExpireDue переводит в expired активные подписки с наступившей датой продления.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	const op = "scheduler.ExpireDue"
	log := s.log.With(slog.String("op", op))

	ids, err := s.repo.ExpireDue(ctx, s.now().UTC())
	if err != nil {
		log.Error("failed to expire subscriptions", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		log.Debug("no subscriptions to expire")
		return 0, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cache.SubscriptionKey(id))
	}
	if err = s.cache.Invalidate(ctx, keys...); err != nil {
		log.Warn("failed to invalidate cache", sl.Err(err))
	}
	metrics.SubscriptionsExpired.Add(float64(len(ids)))
	log.Info("subscriptions expired", slog.Int("count", len(ids)))
	return len(ids), nil
}

// PublishReminders публикует напоминания о подписках, продление которых наступит в пределах окна.
// Ошибка публикации одного сообщения не прерывает остальные.
func (s *Service) PublishReminders(ctx context.Context) (int, error) {
	const op = "scheduler.PublishReminders"
	log := s.log.With(slog.String("op", op))

	from := s.now().UTC()
	reminders, err := s.repo.FindRenewingBetween(ctx, from, from.Add(s.window))
	if err != nil {
		log.Error("failed to find renewing subscriptions", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	published := 0
	for _, r := range reminders {
		if err = s.pub.Publish(ctx, rabbitmq.RoutingRenewalUpcoming, r); err != nil {
			metrics.RemindersPublished.WithLabelValues("error").Inc()
			log.Error("failed to publish reminder",
				slog.String("subscription_id", r.SubscriptionID), sl.Err(err))
			continue
		}
		metrics.RemindersPublished.WithLabelValues("ok").Inc()
		published++
	}
	log.Info("reminders published", slog.Int("count", published), slog.Int("found", len(reminders)))
	return published, nil
}

// Register добавляет задачи в планировщик по расписаниям из конфига.
func (s *Service) Register(ctx context.Context, c *cron.Cron, cfg config.Scheduler) error {
	const op = "scheduler.Register"
	if _, err := c.AddFunc(cfg.ExpireSchedule, func() {
		_, _ = s.ExpireDue(ctx)
	}); err != nil {
		return fmt.Errorf("%s: expire schedule %q: %w", op, cfg.ExpireSchedule, err)
	}
	if _, err := c.AddFunc(cfg.ReminderSchedule, func() {
		_, _ = s.PublishReminders(ctx)
	}); err != nil {
		return fmt.Errorf("%s: reminder schedule %q: %w", op, cfg.ReminderSchedule, err)
	}
	return nil
}
