// Package usersapi собирает HTTP API пользователей: маршруты, зависимости и запуск сервера.
package usersapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/dealer-users/internal/http/apierror"
	"github.com/magabrotheeeer/dealer-users/internal/http/handlers/auth/google"
	"github.com/magabrotheeeer/dealer-users/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/dealer-users/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/dealer-users/internal/http/handlers/health"
	"github.com/magabrotheeeer/dealer-users/internal/http/handlers/user/me"
	"github.com/magabrotheeeer/dealer-users/internal/http/handlers/user/password"
	"github.com/magabrotheeeer/dealer-users/internal/http/handlers/user/remove"
	"github.com/magabrotheeeer/dealer-users/internal/http/handlers/user/update"
	"github.com/magabrotheeeer/dealer-users/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dealer-users/internal/http/validaterequest"
	"github.com/magabrotheeeer/dealer-users/internal/lib/jwt"
	"github.com/magabrotheeeer/dealer-users/internal/metrics"
	authservice "github.com/magabrotheeeer/dealer-users/internal/services/auth"
	userservice "github.com/magabrotheeeer/dealer-users/internal/services/user"
)

// Deps всё, что нужно маршрутам.
type Deps struct {
	Logger         *slog.Logger
	AuthService    *authservice.AuthService
	UserService    *userservice.UserService
	Tokens         jwt.Maker
	DB             health.Pinger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RateLimitRPS   float64
	RateLimitBurst int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	logger := d.Logger
	errs := apierror.New(logger)
	validate := func(schema validaterequest.Schema) func(http.Handler) http.Handler {
		return validaterequest.New(logger, schema, errs, d.Metrics)
	}

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, d.RateLimitRPS, d.RateLimitBurst))
			r.With(validate(validaterequest.Struct[register.Schema]())).
				Post("/auth/register", register.New(logger, d.AuthService, errs).ServeHTTP)
			r.With(validate(validaterequest.Struct[login.Schema]())).
				Post("/auth/login", login.New(logger, d.AuthService, errs).ServeHTTP)
			r.With(validate(validaterequest.Struct[google.Schema]())).
				Post("/auth/google", google.New(logger, d.AuthService, errs).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Tokens, logger))
			r.Get("/users/me", me.New(logger, d.UserService, errs).ServeHTTP)
			r.With(validate(validaterequest.Struct[update.Schema]())).
				Patch("/users/me", update.New(logger, d.UserService, errs).ServeHTTP)
			r.With(validate(validaterequest.Struct[password.Schema]())).
				Post("/users/me/password", password.New(logger, d.AuthService, errs).ServeHTTP)
			r.Delete("/users/me", remove.New(logger, d.UserService, errs).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, d.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
}
