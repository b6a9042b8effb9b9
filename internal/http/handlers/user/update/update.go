// Package update реализует частичное обновление профиля текущего пользователя.
//
// Записываются только переданные поля. Пароль и поля подписки через этот
// обработчик не меняются.
package update

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
	"github.com/magabrotheeeer/dealer-users/internal/models"
)

// DealerAddress адрес дилерского центра в запросе.
type DealerAddress struct {
	City     *string `json:"city" validate:"omitempty,max=100"`
	Country  *string `json:"country" validate:"omitempty,max=100"`
	PostCode *string `json:"post_code" validate:"omitempty,max=20"`
	VATID    *string `json:"vat_id" validate:"omitempty,max=50"`
	Street   *string `json:"street" validate:"omitempty,max=200"`
}

// Request поля профиля, которые можно изменить.
type Request struct {
	Name          *string        `json:"name" validate:"omitempty,min=1,max=100"`
	PhoneNumber   *string        `json:"phoneNumber" validate:"omitempty,max=32"`
	Gender        *string        `json:"gender" validate:"omitempty,oneof=Male Female Others"`
	DateOfBirth   *string        `json:"dateOfBirth" validate:"omitempty,max=32"`
	Image         *string        `json:"image" validate:"omitempty,url"`
	CompanyName   *string        `json:"companyName" validate:"omitempty,max=200"`
	Dealership    *string        `json:"dealership" validate:"omitempty,max=200"`
	UserAddress   *string        `json:"user_address" validate:"omitempty,max=300"`
	DealerAddress *DealerAddress `json:"dealer_address"`
	VATType       *string        `json:"vat_type" validate:"omitempty,max=50"`
}

// Schema схема запроса для validaterequest.
type Schema struct {
	Body Request `json:"body"`
}

// ToProfileUpdate переводит запрос в доменное обновление.
func (req Request) ToProfileUpdate() models.ProfileUpdate {
	upd := models.ProfileUpdate{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
		Image:       req.Image,
		CompanyName: req.CompanyName,
		Dealership:  req.Dealership,
		UserAddress: req.UserAddress,
		VATType:     req.VATType,
	}
	if a := req.DealerAddress; a != nil {
		upd.City = a.City
		upd.Country = a.Country
		upd.PostCode = a.PostCode
		upd.VATID = a.VATID
		upd.Street = a.Street
	}
	return upd
}

// Service описывает обновление профиля.
type Service interface {
	UpdateProfile(ctx context.Context, userUID string, upd models.ProfileUpdate) (*models.User, error)
}

// Handler обрабатывает PATCH /users/me.
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
	const op = "handlers.user.update"

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

	user, err := h.service.UpdateProfile(r.Context(), userUID, req.ToProfileUpdate())
	if err != nil {
		log.Error("failed to update profile", sl.Err(err))
		h.errs.Handle(w, r, err)
		return
	}

	log.Info("profile updated", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(user))
}
