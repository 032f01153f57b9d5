package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// ErrReject помечает сообщение, которое не имеет смысла доставлять повторно.
var ErrReject = errors.New("message rejected")

const maxInFlight = 10

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// Consume читает очередь queueName и передаёт сообщения handler, не более maxInFlight одновременно.
// Успех подтверждается Ack, ошибка возвращает сообщение в очередь, ErrReject отбрасывает его.
func Consume(ctx context.Context, ch *amqp.Channel, queueName string, handler Handler, log *slog.Logger) error {
	const op = "rabbitmq.Consume"
	if err := ch.Qos(maxInFlight, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	go dispatch(ctx, deliveries, handler, log)
	return nil
}

// dispatch раздаёт сообщения обработчикам до отмены ctx или закрытия deliveries.
// Сообщение, для которого не нашлось свободного слота до отмены, возвращается в очередь.
func dispatch(ctx context.Context, deliveries <-chan amqp.Delivery, handler Handler, log *slog.Logger) {
	sem := make(chan struct{}, maxInFlight)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				nackOnShutdown(d, log)
				return
			}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				settle(d, handler(ctx, d.Body), log)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

// Acknowledger часть amqp.Delivery, которой подтверждается сообщение.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// nackOnShutdown возвращает в очередь сообщение, которое не успели взять в обработку.
func nackOnShutdown(d Acknowledger, log *slog.Logger) {
	if err := d.Nack(false, true); err != nil {
		log.Error("failed to nack message", sl.Err(err))
	}
}

func settle(d Acknowledger, err error, log *slog.Logger) {
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
		return
	}
	requeue := !errors.Is(err, ErrReject)
	log.Warn("message handling failed", slog.Bool("requeue", requeue), sl.Err(err))
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		log.Error("failed to nack message", sl.Err(nackErr))
	}
}
