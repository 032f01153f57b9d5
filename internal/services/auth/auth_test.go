package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage"
)

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore хранилище аккаунтов в памяти. Откат транзакции удаляет созданные в ней записи.
type memStore struct {
	mu       sync.Mutex
	byEmail  map[string]models.Account
	failNext error
}

func newMemStore() *memStore {
	return &memStore{byEmail: map[string]models.Account{}}
}

type txWrites struct{}

func (s *memStore) CreateAccount(ctx context.Context, acc models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return nil, err
	}
	if _, ok := s.byEmail[acc.Email]; ok {
		return nil, storage.ErrAlreadyExists
	}
	acc.ID = uuid.NewString()
	acc.CreatedAt = time.Now().UTC()
	acc.UpdatedAt = acc.CreatedAt
	s.byEmail[acc.Email] = acc
	if writes, ok := ctx.Value(txWrites{}).(*[]string); ok {
		*writes = append(*writes, acc.Email)
	}
	return &acc, nil
}

func (s *memStore) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &acc, nil
}

func (s *memStore) GetAccountByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.byEmail {
		if acc.ID == id {
			return &acc, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var writes []string
	if err := fn(context.WithValue(ctx, txWrites{}, &writes)); err != nil {
		s.mu.Lock()
		for _, email := range writes {
			delete(s.byEmail, email)
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEmail)
}

// AccountRepoMock мок хранилища для сценариев с ошибками.
type AccountRepoMock struct {
	mock.Mock
}

func (m *AccountRepoMock) CreateAccount(ctx context.Context, acc models.Account) (*models.Account, error) {
	args := m.Called(ctx, acc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *AccountRepoMock) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *AccountRepoMock) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

// passTx выполняет fn без транзакции.
type passTx struct{}

func (passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MakerMock struct {
	mock.Mock
}

func (m *MakerMock) GenerateToken(accountID string) (string, error) {
	args := m.Called(accountID)
	return args.String(0), args.Error(1)
}

func (m *MakerMock) ParseToken(token string) (*jwt.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.Claims), args.Error(1)
}

type HasherMock struct {
	mock.Mock
}

func (m *HasherMock) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func (m *HasherMock) Compare(hash, plain string) error {
	return m.Called(hash, plain).Error(0)
}

func newManager(store *memStore) (*auth.AccountManager, *jwt.MakerImpl) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	return auth.NewAccountManager(noopLogger(), store, store, password.Bcrypt{}, maker), maker
}

func TestAccountManager_SignUp_Success(t *testing.T) {
	store := newMemStore()
	mgr, maker := newManager(store)

	res, err := mgr.SignUp(context.Background(), "  Alice ", " Alice@Example.com ", "password123")
	require.NoError(t, err)

	assert.Equal(t, "Alice", res.Account.Name)
	assert.Equal(t, "alice@example.com", res.Account.Email)
	assert.Empty(t, res.Account.PasswordHash)

	claims, err := maker.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, claims.AccountID)

	stored, err := store.GetAccountByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.NoError(t, password.CompareHash(stored.PasswordHash, "password123"))
}

func TestAccountManager_SignUp_Validation(t *testing.T) {
	tests := []struct {
		name      string
		inName    string
		email     string
		password  string
		wantField string
	}{
		{name: "short name", inName: "Al", email: "al@example.com", password: "password123", wantField: "name"},
		{name: "bad email", inName: "Alice", email: "alice-at-example", password: "password123", wantField: "email"},
		{name: "short password", inName: "Alice", email: "alice@example.com", password: "1234567", wantField: "password"},
		{name: "password over bcrypt limit", inName: "Alice", email: "alice@example.com", password: strings.Repeat("x", 73), wantField: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			mgr, _ := newManager(store)

			res, err := mgr.SignUp(context.Background(), tt.inName, tt.email, tt.password)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			require.Len(t, appErr.Fields, 1)
			assert.Equal(t, tt.wantField, appErr.Fields[0].Field)
			assert.Equal(t, 0, store.count())
		})
	}
}

func TestAccountManager_SignUp_DuplicateEmail(t *testing.T) {
	store := newMemStore()
	mgr, _ := newManager(store)
	ctx := context.Background()

	_, err := mgr.SignUp(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = mgr.SignUp(ctx, "Alice Two", "ALICE@example.com", "otherpassword")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, 1, store.count())
}

func TestAccountManager_SignUp_UniqueViolationInsideTx(t *testing.T) {
	repo := new(AccountRepoMock)
	maker := new(MakerMock)
	mgr := auth.NewAccountManager(noopLogger(), repo, passTx{}, password.Bcrypt{}, maker)

	repo.On("GetAccountByEmail", mock.Anything, "bob@example.com").Return(nil, storage.ErrNotFound).Twice()
	repo.On("CreateAccount", mock.Anything, mock.MatchedBy(func(acc models.Account) bool {
		return acc.Email == "bob@example.com" && acc.PasswordHash != "" && acc.PasswordHash != "password123"
	})).Return(nil, storage.ErrAlreadyExists).Once()

	_, err := mgr.SignUp(context.Background(), "Bob", "bob@example.com", "password123")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	repo.AssertExpectations(t)
	maker.AssertNotCalled(t, "GenerateToken", mock.Anything)
}

func TestAccountManager_SignUp_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.failNext = errors.New("connection reset")
	maker := new(MakerMock)
	mgr := auth.NewAccountManager(noopLogger(), store, store, password.Bcrypt{}, maker)

	_, err := mgr.SignUp(context.Background(), "Carol", "carol@example.com", "password123")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, 0, store.count())
	maker.AssertNotCalled(t, "GenerateToken", mock.Anything)
}

func TestAccountManager_SignUp_LookupFailure(t *testing.T) {
	repo := new(AccountRepoMock)
	hasher := new(HasherMock)
	mgr := auth.NewAccountManager(noopLogger(), repo, passTx{}, hasher, new(MakerMock))

	repo.On("GetAccountByEmail", mock.Anything, "dan@example.com").Return(nil, errors.New("timeout")).Once()

	_, err := mgr.SignUp(context.Background(), "Dan", "dan@example.com", "password123")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	hasher.AssertNotCalled(t, "Hash", mock.Anything)
}

func TestAccountManager_SignUp_HashFailure(t *testing.T) {
	store := newMemStore()
	hasher := new(HasherMock)
	hasher.On("Hash", "password123").Return("", errors.New("entropy exhausted")).Once()
	mgr := auth.NewAccountManager(noopLogger(), store, store, hasher, new(MakerMock))

	_, err := mgr.SignUp(context.Background(), "Erin", "erin@example.com", "password123")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, 0, store.count())
}

func TestAccountManager_SignUp_TokenFailure(t *testing.T) {
	store := newMemStore()
	maker := new(MakerMock)
	maker.On("GenerateToken", mock.Anything).Return("", errors.New("signing failed")).Once()
	mgr := auth.NewAccountManager(noopLogger(), store, store, password.Bcrypt{}, maker)

	res, err := mgr.SignUp(context.Background(), "Frank", "frank@example.com", "password123")
	assert.Nil(t, res)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "internal server error", appErr.Message)
}

func TestAccountManager_SignUp_ConcurrentDuplicates(t *testing.T) {
	store := newMemStore()
	mgr, _ := newManager(store)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = mgr.SignUp(context.Background(), "Racer", "race@example.com", "password123")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, store.count())
}

func TestAccountManager_SignIn(t *testing.T) {
	store := newMemStore()
	mgr, maker := newManager(store)
	ctx := context.Background()

	signedUp, err := mgr.SignUp(ctx, "Grace", "grace@example.com", "password123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantKind apperr.Kind
		wantErr  bool
	}{
		{name: "success", email: "grace@example.com", password: "password123"},
		{name: "email case and spaces ignored", email: "  GRACE@example.com", password: "password123"},
		{name: "unknown email", email: "nobody@example.com", password: "password123", wantErr: true, wantKind: apperr.KindNotFound},
		{name: "wrong password", email: "grace@example.com", password: "password124", wantErr: true, wantKind: apperr.KindUnauthorized},
		{name: "empty password", email: "grace@example.com", password: "", wantErr: true, wantKind: apperr.KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := mgr.SignIn(ctx, tt.email, tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, res)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Empty(t, res.Account.PasswordHash)

			claims, err := maker.ParseToken(res.Token)
			require.NoError(t, err)
			assert.Equal(t, signedUp.Account.ID, claims.AccountID)
		})
	}
}

func TestAccountManager_SignIn_CorruptHash(t *testing.T) {
	repo := new(AccountRepoMock)
	repo.On("GetAccountByEmail", mock.Anything, "h@example.com").
		Return(&models.Account{ID: "1", Email: "h@example.com", PasswordHash: "garbage"}, nil).Once()
	mgr := auth.NewAccountManager(noopLogger(), repo, passTx{}, password.Bcrypt{}, new(MakerMock))

	_, err := mgr.SignIn(context.Background(), "h@example.com", "password123")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestAccountManager_SignOut(t *testing.T) {
	mgr, _ := newManager(newMemStore())
	assert.NoError(t, mgr.SignOut(context.Background()))
}

func TestAccountManager_GetAccount(t *testing.T) {
	store := newMemStore()
	mgr, _ := newManager(store)
	ctx := context.Background()

	res, err := mgr.SignUp(ctx, "Heidi", "heidi@example.com", "password123")
	require.NoError(t, err)

	acc, err := mgr.GetAccount(ctx, res.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "heidi@example.com", acc.Email)
	assert.Empty(t, acc.PasswordHash)

	_, err = mgr.GetAccount(ctx, uuid.NewString())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
