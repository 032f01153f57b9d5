package read

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Read(ctx context.Context, accountID, id string) (*models.Subscription, error) {
	args := m.Called(ctx, accountID, id)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное чтение подписки",
			url:  "/subscriptions/sub-1",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, "acc-1", "sub-1").
					Return(&models.Subscription{ID: "sub-1", Name: "Netflix", AccountID: "acc-1"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"name":"Netflix"`,
		},
		{
			name: "подписка другого аккаунта",
			url:  "/subscriptions/sub-2",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, "acc-1", "sub-2").Return(nil, apperr.NotFound("subscription not found"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"success":false,"error":"subscription not found"}`,
		},
		{
			name: "ошибка сервиса чтения",
			url:  "/subscriptions/sub-3",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, "acc-1", "sub-3").Return(nil, apperr.Internal(errors.New("db error")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"success":false,"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			r := chi.NewRouter()
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					ctx := context.WithValue(req.Context(), middlewarectx.AccountKey, &models.Account{ID: "acc-1"})
					next.ServeHTTP(w, req.WithContext(ctx))
				})
			})
			r.Get("/subscriptions/{id}", New(logger, svc).ServeHTTP)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
