package list

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, accountID string, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, accountID, limit, offset)
	res, _ := args.Get(0).([]*models.Subscription)
	return res, args.Error(1)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
		mockRes    []*models.Subscription
		mockErr    error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "explicit paging",
			query:      "?limit=5&offset=10",
			wantLimit:  5,
			wantOffset: 10,
			mockRes:    []*models.Subscription{{ID: "a"}, {ID: "b"}},
			wantStatus: http.StatusOK,
			wantBody:   `"count":2`,
		},
		{
			name:       "garbage query passes zeros",
			query:      "?limit=abc&offset=-",
			mockRes:    []*models.Subscription{},
			wantStatus: http.StatusOK,
			wantBody:   `"count":0`,
		},
		{
			name:       "service failure",
			mockErr:    apperr.Internal(errors.New("db down")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"error":"internal server error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("List", mock.Anything, "acc-1", tt.wantLimit, tt.wantOffset).Return(tt.mockRes, tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions"+tt.query, nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.AccountKey, &models.Account{ID: "acc-1"}))
			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
