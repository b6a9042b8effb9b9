package usersapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/dealer-users/internal/config"
	"github.com/magabrotheeeer/dealer-users/internal/lib/googleauth"
	"github.com/magabrotheeeer/dealer-users/internal/lib/jwt"
	"github.com/magabrotheeeer/dealer-users/internal/lib/password"
	"github.com/magabrotheeeer/dealer-users/internal/lib/sl"
	"github.com/magabrotheeeer/dealer-users/internal/metrics"
	"github.com/magabrotheeeer/dealer-users/internal/migrations"
	authservice "github.com/magabrotheeeer/dealer-users/internal/services/auth"
	userservice "github.com/magabrotheeeer/dealer-users/internal/services/user"
	"github.com/magabrotheeeer/dealer-users/internal/storage/repository"
	schema "github.com/magabrotheeeer/dealer-users/migrations"
)

// App HTTP API пользователей.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New подключается к базе, применяет миграции и собирает роутер.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "usersapi.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, schema.Files); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	hasher := password.NewHasher(cfg.BcryptSaltRounds)

	var authOpts []authservice.Option
	if cfg.GoogleClientID != "" {
		authOpts = append(authOpts, authservice.WithGoogleVerifier(googleauth.NewVerifier(cfg.GoogleClientID)))
	} else {
		logger.Info("google client id is empty, google login is disabled")
	}

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:         logger,
		AuthService:    authservice.NewAuthService(db, tokens, hasher, authOpts...),
		UserService:    userservice.NewUserService(db),
		Tokens:         tokens,
		DB:             db.DB,
		Metrics:        metrics.New(prometheus.DefaultRegisterer),
		Gatherer:       prometheus.DefaultGatherer,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", sl.Err(closeErr))
		}
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", sl.Err(closeErr))
		}
		return err
	}
}
