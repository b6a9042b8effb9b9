// Package register реализует HTTP-обработчик регистрации по email и паролю.
//
// Тело запроса к этому моменту уже проверено middleware validaterequest по Schema.
package register

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
	authservice "github.com/magabrotheeeer/dealer-users/internal/services/auth"
)

// Request входные данные для регистрации.
type Request struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6,max=72"`
	Role        string  `json:"role" validate:"omitempty,oneof=user dealer"`
	Name        *string `json:"name" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
}

// Schema схема запроса для validaterequest.
type Schema struct {
	Body Request `json:"body"`
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, in authservice.RegisterInput) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы на регистрацию.
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
	const op = "handlers.auth.register"

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

	user, err := h.service.Register(r.Context(), authservice.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		h.errs.Handle(w, r, err)
		return
	}

	log.Info("user registered", slog.String("user_uid", user.UUID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user":    user,
		"message": "user created successfully",
	}))
}
