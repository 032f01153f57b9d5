package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const accountColumns = `id, name, email, password_hash, created_at, updated_at`

// CreateAccount сохраняет аккаунт и возвращает его с заполненными ID и временем создания.
func (s *Storage) CreateAccount(ctx context.Context, acc models.Account) (*models.Account, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	query := `INSERT INTO accounts (id, name, email, password_hash)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + accountColumns
	out := &models.Account{}
	err := s.conn(ctx).QueryRowContext(ctx, query, acc.ID, acc.Name, acc.Email, acc.PasswordHash).
		Scan(&out.ID, &out.Name, &out.Email, &out.PasswordHash, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return out, nil
}

// GetAccountByEmail ищет аккаунт по нормализованному email.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	acc := &models.Account{}
	err := s.conn(ctx).QueryRowContext(ctx, query, email).
		Scan(&acc.ID, &acc.Name, &acc.Email, &acc.PasswordHash, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return acc, nil
}

// GetAccountByID ищет аккаунт по идентификатору.
func (s *Storage) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	const op = "storage.GetAccountByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	acc := &models.Account{}
	err := s.conn(ctx).QueryRowContext(ctx, query, id).
		Scan(&acc.ID, &acc.Name, &acc.Email, &acc.PasswordHash, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return acc, nil
}

// CountAccounts возвращает число аккаунтов.
func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	const op = "storage.CountAccounts"
	var n int
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
