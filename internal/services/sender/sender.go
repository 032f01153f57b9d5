// Package sender отправляет письма-напоминания о продлении подписок.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Transport выдаёт подключение к почтовому серверу.
type Transport interface {
	Connect() (smtp.Client, error)
	Sender() string
}

// Service отправляет письма.
type Service struct {
	transport Transport
	log       *slog.Logger
}

// NewService создает Service.
func NewService(log *slog.Logger, transport Transport) *Service {
	return &Service{transport: transport, log: log}
}

// HandleRenewalReminder разбирает напоминание из очереди и отправляет письмо владельцу подписки.
// Непарсящееся или неполное сообщение отклоняется без повторной доставки.
func (s *Service) HandleRenewalReminder(ctx context.Context, body []byte) error {
	const op = "sender.HandleRenewalReminder"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var r models.RenewalReminder
	if err := json.Unmarshal(body, &r); err != nil {
		s.log.Error("failed to unmarshal message body", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrReject, err)
	}
	if r.Email == "" {
		return fmt.Errorf("%s: %w: empty recipient", op, rabbitmq.ErrReject)
	}

	subject := fmt.Sprintf("Напоминание: подписка %s скоро продлится", r.SubscriptionName)
	text := fmt.Sprintf("Здравствуйте, %s!\n\nПодписка %s будет продлена %s.\nСумма списания: %.2f %s.\n",
		r.AccountName, r.SubscriptionName, r.RenewalDate.Format("02.01.2006"), r.Price, r.Currency)

	if err := s.sendEmail(r.Email, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("reminder sent", slog.String("subscription_id", r.SubscriptionID))
	return nil
}

func (s *Service) sendEmail(to, subject, bodyText string) error {
	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer client.Close()

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return client.Quit()
}
