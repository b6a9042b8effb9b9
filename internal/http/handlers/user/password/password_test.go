package password

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/dealer-users/internal/http/apierror"
	"github.com/magabrotheeeer/dealer-users/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/dealer-users/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ChangePassword(ctx context.Context, userUID, oldPassword, newPassword string) error {
	args := m.Called(ctx, userUID, oldPassword, newPassword)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPasswordHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		mockErr        error
		wantStatusCode int
	}{
		{name: "changed", wantStatusCode: http.StatusOK},
		{name: "wrong current password", mockErr: authservice.ErrInvalidCredentials, wantStatusCode: http.StatusUnauthorized},
		{name: "google account", mockErr: authservice.ErrPasswordRequired, wantStatusCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("ChangePassword", mock.Anything, "uid-1", "old-secret", "new-secret").Return(tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/me/password",
				strings.NewReader(`{"oldPassword":"old-secret","newPassword":"new-secret"}`))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc, apierror.New(newNoopLogger())).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
