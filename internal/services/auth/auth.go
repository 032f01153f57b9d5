// Package auth содержит бизнес-логику аккаунтов: регистрацию, вход и выход.
package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage"
)

// AccountRepository хранилище аккаунтов.
type AccountRepository interface {
	CreateAccount(ctx context.Context, acc models.Account) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
}

// TxManager выполняет функцию в транзакции хранилища.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Hasher хеширует и сравнивает пароли.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

// AuthResult результат успешной регистрации или входа.
type AuthResult struct {
	Token   string         `json:"token"`
	Account models.Account `json:"user"`
}

// Сообщения, которые видит клиент.
const (
	MsgAccountExists     = "account already exists"
	MsgAccountNotFound   = "account does not exist"
	MsgIncorrectPassword = "incorrect password"
)

// AccountManager управляет жизненным циклом аккаунта.
type AccountManager struct {
	log      *slog.Logger
	accounts AccountRepository
	tx       TxManager
	hasher   Hasher
	tokens   jwt.Maker
}

// NewAccountManager создаёт AccountManager.
func NewAccountManager(log *slog.Logger, accounts AccountRepository, tx TxManager, hasher Hasher, tokens jwt.Maker) *AccountManager {
	return &AccountManager{
		log:      log,
		accounts: accounts,
		tx:       tx,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// SignUp регистрирует аккаунт и выдаёт токен.
//
// Проверка дубликата до транзакции лишь экономит хеширование; окончательно
// уникальность гарантирует хранилище. Токен выпускается только после фиксации транзакции.
func (m *AccountManager) SignUp(ctx context.Context, name, email, plain string) (*AuthResult, error) {
	const op = "auth.SignUp"
	log := m.log.With(slog.String("op", op))

	in := models.NewSignUpInput(name, email, plain)
	if fields := models.FieldErrors(in.Validate()); len(fields) > 0 {
		metrics.SignUps.WithLabelValues("invalid").Inc()
		return nil, apperr.Validation(fields...)
	}

	if err := m.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, m.signUpFailed(log, err)
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		return nil, m.signUpFailed(log, err)
	}

	var created *models.Account
	err = m.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := m.ensureEmailFree(ctx, in.Email); err != nil {
			return err
		}
		acc, err := m.accounts.CreateAccount(ctx, models.Account{
			Name:         in.Name,
			Email:        in.Email,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		created = acc
		return nil
	})
	if err != nil {
		return nil, m.signUpFailed(log, err)
	}

	token, err := m.tokens.GenerateToken(created.ID)
	if err != nil {
		return nil, m.signUpFailed(log, err)
	}

	metrics.SignUps.WithLabelValues("ok").Inc()
	log.Info("account created", slog.String("account_id", created.ID))
	return &AuthResult{Token: token, Account: created.Redacted()}, nil
}

func (m *AccountManager) ensureEmailFree(ctx context.Context, email string) error {
	_, err := m.accounts.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return storage.ErrAlreadyExists
	case errors.Is(err, storage.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (m *AccountManager) signUpFailed(log *slog.Logger, err error) error {
	if errors.Is(err, storage.ErrAlreadyExists) {
		metrics.SignUps.WithLabelValues("conflict").Inc()
		return apperr.Conflict(MsgAccountExists)
	}
	metrics.SignUps.WithLabelValues("error").Inc()
	log.Error("failed to sign up", sl.Err(err))
	return apperr.Internal(err)
}

// SignIn проверяет учётные данные и выдаёт новый токен.
func (m *AccountManager) SignIn(ctx context.Context, email, plain string) (*AuthResult, error) {
	const op = "auth.SignIn"
	log := m.log.With(slog.String("op", op))

	acc, err := m.accounts.GetAccountByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.SignIns.WithLabelValues("not_found").Inc()
			return nil, apperr.NotFound(MsgAccountNotFound)
		}
		metrics.SignIns.WithLabelValues("error").Inc()
		log.Error("failed to get account", sl.Err(err))
		return nil, apperr.Internal(err)
	}

	if err = m.hasher.Compare(acc.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			metrics.SignIns.WithLabelValues("bad_password").Inc()
			return nil, apperr.Unauthorized(MsgIncorrectPassword)
		}
		metrics.SignIns.WithLabelValues("error").Inc()
		log.Error("failed to compare password", sl.Err(err))
		return nil, apperr.Internal(err)
	}

	token, err := m.tokens.GenerateToken(acc.ID)
	if err != nil {
		metrics.SignIns.WithLabelValues("error").Inc()
		log.Error("failed to generate token", sl.Err(err))
		return nil, apperr.Internal(err)
	}

	metrics.SignIns.WithLabelValues("ok").Inc()
	log.Info("account signed in", slog.String("account_id", acc.ID))
	return &AuthResult{Token: token, Account: acc.Redacted()}, nil
}

// SignOut ничего не делает: токены не отзываются и истекают сами.
func (m *AccountManager) SignOut(_ context.Context) error {
	return nil
}

// GetAccount возвращает аккаунт без хеша пароля.
func (m *AccountManager) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	const op = "auth.GetAccount"
	acc, err := m.accounts.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(MsgAccountNotFound)
		}
		m.log.Error("failed to get account", slog.String("op", op), sl.Err(err))
		return nil, apperr.Internal(err)
	}
	red := acc.Redacted()
	return &red, nil
}
