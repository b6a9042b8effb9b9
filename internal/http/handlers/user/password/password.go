// Package password реализует смену пароля текущего пользователя.
package password

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/dealer-users/internal/http/apierror"
	"github.com/magabrotheeeer/dealer-users/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dealer-users/internal/http/response"
	"github.com/magabrotheeeer/dealer-users/internal/lib/sl"
)

// Request текущий и новый пароль.
type Request struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72,nefield=OldPassword"`
}

// Schema схема запроса для validaterequest.
type Schema struct {
	Body Request `json:"body"`
}

// Service описывает смену пароля.
type Service interface {
	ChangePassword(ctx context.Context, userUID, oldPassword, newPassword string) error
}

// Handler обрабатывает POST /users/me/password.
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
	const op = "handlers.user.password"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		h.errs.Handle(w, r, apierror.BadRequest("invalid request body", err))
		return
	}

	if err := h.service.ChangePassword(r.Context(), userUID, req.OldPassword, req.NewPassword); err != nil {
		log.Error("failed to change password", sl.Err(err))
		h.errs.Handle(w, r, err)
		return
	}

	log.Info("password changed", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "password changed successfully",
	}))
}
