package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const subscriptionColumns = `id, name, price, currency, frequency, category, payment_method,
	status, start_date, renewal_date, account_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Price, &sub.Currency, &sub.Frequency, &sub.Category,
		&sub.PaymentMethod, &sub.Status, &sub.StartDate, &sub.RenewalDate, &sub.AccountID,
		&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	sub.StartDate = sub.StartDate.UTC()
	sub.RenewalDate = sub.RenewalDate.UTC()
	return &sub, nil
}

func collectSubscriptions(rows *sql.Rows) ([]*models.Subscription, error) {
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateSubscription сохраняет подписку, уже прошедшую проверку и вычисление даты продления.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	query := `INSERT INTO subscriptions (id, name, price, currency, frequency, category, payment_method,
			      status, start_date, renewal_date, account_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING ` + subscriptionColumns
	row := s.conn(ctx).QueryRowContext(ctx, query,
		sub.ID, sub.Name, sub.Price, string(sub.Currency), string(sub.Frequency), string(sub.Category),
		sub.PaymentMethod, string(sub.Status), sub.StartDate, sub.RenewalDate, sub.AccountID)
	out, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return out, nil
}

// GetSubscription возвращает подписку по идентификатору.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	sub, err := scanSubscription(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// ListSubscriptionsByAccount возвращает подписки аккаунта с пагинацией, по дате создания.
func (s *Storage) ListSubscriptionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsByAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE account_id = $1
			  ORDER BY created_at, id
			  LIMIT $2 OFFSET $3`
	rows, err := s.conn(ctx).QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := collectSubscriptions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExpireDue переводит активные подписки с наступившей датой продления в expired
// и возвращает их идентификаторы.
func (s *Storage) ExpireDue(ctx context.Context, now time.Time) ([]string, error) {
	const op = "storage.ExpireDue"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = 'expired', updated_at = now()
			  WHERE status = 'active' AND renewal_date <= $1
			  RETURNING id`
	rows, err := s.conn(ctx).QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// FindRenewingBetween возвращает активные подписки с продлением в (from, to] вместе с данными владельца.
func (s *Storage) FindRenewingBetween(ctx context.Context, from, to time.Time) ([]*models.RenewalReminder, error) {
	const op = "storage.FindRenewingBetween"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.name, s.price, s.currency, s.renewal_date, a.id, a.name, a.email
			  FROM subscriptions s
			  JOIN accounts a ON a.id = s.account_id
			  WHERE s.status = 'active' AND s.renewal_date > $1 AND s.renewal_date <= $2
			  ORDER BY s.renewal_date`
	rows, err := s.conn(ctx).QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.RenewalReminder
	for rows.Next() {
		var r models.RenewalReminder
		if err = rows.Scan(&r.SubscriptionID, &r.SubscriptionName, &r.Price, &r.Currency, &r.RenewalDate,
			&r.AccountID, &r.AccountName, &r.Email); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		r.RenewalDate = r.RenewalDate.UTC()
		result = append(result, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
