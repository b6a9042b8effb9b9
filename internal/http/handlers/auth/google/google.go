// Package google реализует вход через Google по ID token: пользователь без пароля создаётся при первом входе.
package google

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

// Request ID token, полученный клиентом от Google. Email и профиль берутся только из проверенного токена.
type Request struct {
	IDToken string `json:"idToken" validate:"required,max=4096"`
}

// Schema схема запроса для validaterequest.
type Schema struct {
	Body Request `json:"body"`
}

// Service описывает интерфейс входа через Google.
type Service interface {
	GoogleLogin(ctx context.Context, idToken string) (string, *models.User, error)
}

// Handler обрабатывает вход через Google.
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
	const op = "handlers.auth.google"

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

	token, user, err := h.service.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		log.Error("google login failed", sl.Err(err))
		h.errs.Handle(w, r, err)
		return
	}

	log.Info("google login success", slog.String("user_uid", user.UUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": token,
		"role":  user.Role,
		"user":  user,
	}))
}
