// Package scheduler собирает процесс ежедневного списания дней подписки:
// хранилище, отметку в redis, публикацию в RabbitMQ и cron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/dealer-users/internal/cache"
	"github.com/magabrotheeeer/dealer-users/internal/config"
	"github.com/magabrotheeeer/dealer-users/internal/lib/sl"
	"github.com/magabrotheeeer/dealer-users/internal/metrics"
	"github.com/magabrotheeeer/dealer-users/internal/rabbitmq"
	schedulerservice "github.com/magabrotheeeer/dealer-users/internal/services/scheduler"
	"github.com/magabrotheeeer/dealer-users/internal/storage/repository"
)

const (
	guardPrefix = "decrement"
	// cronSkipMsg сообщение, с которым cron.SkipIfStillRunning пропускает тик.
	cronSkipMsg = "skip"
)

// App представляет приложение планировщика.
type App struct {
	cron             *cron.Cron
	spec             string
	decrementService *schedulerservice.DecrementService
	metricsServer    *http.Server
	db               *repository.Storage
	cache            *cache.Cache
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	var err error
	for range 10 {
		if err = repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		spec:   cfg.DecrementSpec,
		logger: logger,
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	app.db = db
	if err := waitForDB(ctx, db); err != nil {
		app.closeResources()
		return nil, err
	}

	loc := cfg.Scheduler.Location()
	opts := []schedulerservice.Option{
		schedulerservice.WithMetrics(metrics.New(prometheus.DefaultRegisterer)),
		schedulerservice.WithRunTimeout(cfg.RunTimeout),
	}

	if cfg.DailyGuard {
		if cfg.AddressRedis == "" {
			app.closeResources()
			return nil, errors.New("daily_guard requires redis_connection.address")
		}
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("cache not initialized: %w", err)
		}
		app.cache = cacheRedis
		opts = append(opts, schedulerservice.WithGuard(cache.NewDailyGuard(cacheRedis, guardPrefix, loc)))
	}

	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		app.ch = ch
		opts = append(opts, schedulerservice.WithPublisher(rabbitmq.NewPublisher(ch)))
	} else {
		logger.Info("rabbitmq url is empty, expiry events are disabled")
	}

	app.decrementService = schedulerservice.NewDecrementService(db, logger, opts...)
	app.cron = newCron(loc, logger)
	app.metricsServer = &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return app, nil
}

// newCron создаёт cron в часовом поясе loc. Тик, пришедший во время незавершённого прохода, пропускается.
func newCron(loc *time.Location, logger *slog.Logger) *cron.Cron {
	cl := cronLogger{log: logger}
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

// Run регистрирует задачу, запускает cron и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.decrementService.Start(ctx, a.cron, a.spec); err != nil {
		a.closeResources()
		return err
	}
	a.cron.Start()

	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.metricsServer.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutting down scheduler service")

	stopped := a.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(30 * time.Second):
		a.logger.Error("running decrement pass did not finish in time")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to stop metrics server", sl.Err(err))
	}

	a.closeResources()
	return nil
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}

// cronLogger пишет сообщения cron в slog.
type cronLogger struct {
	log *slog.Logger
}

// Info пишет служебные сообщения cron в Debug. Пропуск тика из-за незавершённого прохода
// ("skip" от SkipIfStillRunning) пишется в Info, чтобы он был виден в проде.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if msg == cronSkipMsg {
		l.log.Info("cron: tick skipped, previous decrement run is still in progress", keysAndValues...)
		return
	}
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append([]any{sl.Err(err)}, keysAndValues...)...)
}
