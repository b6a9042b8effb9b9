// Package me отдаёт профиль текущего пользователя.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/dealer-users/internal/http/apierror"
	"github.com/magabrotheeeer/dealer-users/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dealer-users/internal/http/response"
	"github.com/magabrotheeeer/dealer-users/internal/lib/sl"
	"github.com/magabrotheeeer/dealer-users/internal/models"
)

// Service описывает чтение пользователя.
type Service interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает GET /users/me.
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
	const op = "handlers.user.me"

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

	user, err := h.service.GetUser(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get user", sl.Err(err))
		h.errs.Handle(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(user))
}
