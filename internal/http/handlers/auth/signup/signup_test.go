package signup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) SignUp(ctx context.Context, name, email, password string) (*auth.AuthResult, error) {
	args := m.Called(ctx, name, email, password)
	res, _ := args.Get(0).(*auth.AuthResult)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSignUpHandler_ServeHTTP(t *testing.T) {
	created := &auth.AuthResult{
		Token:   "token-1",
		Account: models.Account{ID: "acc-1", Name: "alice", Email: "alice@example.com"},
	}

	tests := []struct {
		name       string
		body       string
		setupMock  func(*ServiceMock)
		wantStatus int
		wantError  string
		wantFields []apperr.FieldError
	}{
		{
			name: "valid sign-up",
			body: `{"name":"alice","email":"alice@example.com","password":"s3cret-pass"}`,
			setupMock: func(m *ServiceMock) {
				m.On("SignUp", mock.Anything, "alice", "alice@example.com", "s3cret-pass").Return(created, nil).Once()
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid JSON",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "missing fields",
			body:       `{"name":"alice"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "email: is a required field, password: is a required field",
			wantFields: []apperr.FieldError{
				{Field: "email", Message: "is a required field"},
				{Field: "password", Message: "is a required field"},
			},
		},
		{
			name: "domain validation",
			body: `{"name":"al","email":"alice@example.com","password":"s3cret-pass"}`,
			setupMock: func(m *ServiceMock) {
				m.On("SignUp", mock.Anything, "al", "alice@example.com", "s3cret-pass").
					Return(nil, apperr.Validation(apperr.FieldError{Field: "name", Message: "the length must be between 3 and 50"})).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "name: the length must be between 3 and 50",
			wantFields: []apperr.FieldError{{Field: "name", Message: "the length must be between 3 and 50"}},
		},
		{
			name: "duplicate email",
			body: `{"name":"alice","email":"alice@example.com","password":"s3cret-pass"}`,
			setupMock: func(m *ServiceMock) {
				m.On("SignUp", mock.Anything, "alice", "alice@example.com", "s3cret-pass").
					Return(nil, apperr.Conflict(auth.MsgAccountExists)).Once()
			},
			wantStatus: http.StatusConflict,
			wantError:  auth.MsgAccountExists,
		},
		{
			name: "internal failure is not leaked",
			body: `{"name":"alice","email":"alice@example.com","password":"s3cret-pass"}`,
			setupMock: func(m *ServiceMock) {
				m.On("SignUp", mock.Anything, "alice", "alice@example.com", "s3cret-pass").
					Return(nil, apperr.Internal(errors.New("tx aborted: connection reset"))).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}
			handler := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-up", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			if tt.wantError == "" {
				assert.Equal(t, true, body["success"])
				assert.Equal(t, "account created", body["message"])
				data := body["data"].(map[string]any)
				assert.Equal(t, "token-1", data["token"])
				user := data["user"].(map[string]any)
				assert.Equal(t, "acc-1", user["id"])
				assert.NotContains(t, user, "password_hash")
			} else {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.wantError, body["error"])
				if tt.wantFields != nil {
					raw, err := json.Marshal(body["fields"])
					require.NoError(t, err)
					var fields []apperr.FieldError
					require.NoError(t, json.Unmarshal(raw, &fields))
					assert.Equal(t, tt.wantFields, fields)
				}
			}
			svc.AssertExpectations(t)
		})
	}
}
