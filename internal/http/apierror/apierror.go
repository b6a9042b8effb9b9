// Package apierror единая точка превращения ошибок обработчиков и middleware в HTTP-ответы.
package apierror

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dealer-users/internal/http/response"
	"github.com/magabrotheeeer/dealer-users/internal/lib/googleauth"
	"github.com/magabrotheeeer/dealer-users/internal/lib/password"
	"github.com/magabrotheeeer/dealer-users/internal/lib/sl"
	authservice "github.com/magabrotheeeer/dealer-users/internal/services/auth"
	userservice "github.com/magabrotheeeer/dealer-users/internal/services/user"
	"github.com/magabrotheeeer/dealer-users/internal/storage/repository"
)

// ValidationError запрос не прошёл проверку схемы.
type ValidationError struct {
	Errs validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Errs.Error()
}

// BadRequestError запрос не удалось разобрать.
type BadRequestError struct {
	Msg string
	Err error
}

func (e *BadRequestError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *BadRequestError) Unwrap() error {
	return e.Err
}

// BadRequest создаёт BadRequestError.
func BadRequest(msg string, err error) error {
	return &BadRequestError{Msg: msg, Err: err}
}

// Handler пишет ответ для ошибки и логирует её.
type Handler struct {
	log *slog.Logger
}

// New создаёт Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// Handle выбирает HTTP-статус по ошибке и отдаёт JSON в формате response.Response.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	const op = "apierror.Handle"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("path", r.URL.Path),
	)

	status, resp := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Info("request rejected", slog.Int("status", status), sl.Err(err))
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

func classify(err error) (int, response.Response) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return http.StatusUnprocessableEntity, response.ValidationError(vErr.Errs)
	}
	var bErr *BadRequestError
	if errors.As(err, &bErr) {
		return http.StatusBadRequest, response.Error(bErr.Msg)
	}

	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, response.Error("user not found")
	case errors.Is(err, repository.ErrUserExists):
		return http.StatusConflict, response.Error("user already exists")
	case errors.Is(err, authservice.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.Error("invalid credentials")
	case errors.Is(err, authservice.ErrUserBlocked):
		return http.StatusForbidden, response.Error("user is blocked")
	case errors.Is(err, authservice.ErrUserDeleted):
		return http.StatusForbidden, response.Error("user is deleted")
	case errors.Is(err, googleauth.ErrInvalidToken):
		return http.StatusUnauthorized, response.Error("invalid google token")
	case errors.Is(err, googleauth.ErrEmailNotVerified):
		return http.StatusUnauthorized, response.Error("google email is not verified")
	case errors.Is(err, authservice.ErrNotGoogleAccount):
		return http.StatusConflict, response.Error("account uses password login")
	case errors.Is(err, authservice.ErrGoogleLoginDisabled):
		return http.StatusNotImplemented, response.Error("google login is disabled")
	case errors.Is(err, authservice.ErrPasswordRequired):
		return http.StatusBadRequest, response.Error("account has no password, use google login")
	case errors.Is(err, password.ErrEmptyPassword):
		return http.StatusBadRequest, response.Error("password is required")
	case errors.Is(err, userservice.ErrNothingToUpdate):
		return http.StatusBadRequest, response.Error("nothing to update")
	}
	return http.StatusInternalServerError, response.Error("internal server error")
}
