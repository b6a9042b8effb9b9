// Package login реализует HTTP-обработчик входа по email и паролю.
// При успехе возвращается JWT и данные пользователя.
package login

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/dealer-users/internal/http/apierror"
	"github.com/magabrotheeeer/dealer-users/internal/http/response"
	"github.com/magabrotheeeer/dealer-users/internal/lib/sl"
	"github.com/magabrotheeeer/dealer-users/internal/models"
)

// Request структура входных данных для авторизации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Schema схема запроса для validaterequest.
type Schema struct {
	Body Request `json:"body"`
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log     *slog.Logger
	service Service
	errs    *apierror.Handler
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, errs *apierror.Handler) *Handler {
	return &Handler{
		log:     log,
		service: service,
		errs:    errs,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		h.errs.Handle(w, r, apierror.BadRequest("invalid request body", err))
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("login failed", sl.Err(err))
		h.errs.Handle(w, r, err)
		return
	}

	log.Info("login success", slog.String("user_uid", user.UUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": token,
		"role":  user.Role,
		"user":  user,
	}))
}
