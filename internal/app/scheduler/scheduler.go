// Package scheduler собирает фоновый процесс: истечение подписок и напоминания о продлении.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/subscription-tracker/internal/services/scheduler"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage"
)

// App представляет приложение планировщика.
type App struct {
	cfg       config.Scheduler
	service   *schedulerservice.Service
	conn      *amqp.Connection
	publisher *rabbitmq.Publisher
	db        *storage.Storage
	cache     *cache.Cache
	logger    *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.ReminderQueues())
	if err != nil {
		closeResources(logger, conn)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	publisher := rabbitmq.NewPublisher(ch, cfg.Exchange)

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		closeResources(logger, publisher, conn)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeResources(logger, db, publisher, conn)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	service := schedulerservice.NewService(logger, db, publisher, cacheRedis, cfg.ReminderWindow, time.Now)

	return &App{
		cfg:       cfg.Scheduler,
		service:   service,
		conn:      conn,
		publisher: publisher,
		db:        db,
		cache:     cacheRedis,
		logger:    logger,
	}, nil
}

type closer interface {
	Close() error
}

func closeResources(logger *slog.Logger, resources ...closer) {
	for _, r := range resources {
		if err := r.Close(); err != nil {
			logger.Error("failed to close resource", sl.Err(err))
		}
	}
}

// Run запускает задачи по расписанию и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	c := cron.New()
	if err := a.service.Register(ctx, c, a.cfg); err != nil {
		closeResources(a.logger, a.cache, a.db, a.publisher, a.conn)
		return err
	}

	// Первый проход сразу после старта, не дожидаясь расписания.
	_, _ = a.service.ExpireDue(ctx)

	c.Start()
	a.logger.Info("scheduler started",
		slog.String("expire_schedule", a.cfg.ExpireSchedule),
		slog.String("reminder_schedule", a.cfg.ReminderSchedule),
	)

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")
	<-c.Stop().Done()

	closeResources(a.logger, a.cache, a.db, a.publisher, a.conn)
	return nil
}
