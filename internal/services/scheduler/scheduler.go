// Package services содержит ежедневную задачу списания дней подписки.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/dealer-users/internal/lib/sl"
	"github.com/magabrotheeeer/dealer-users/internal/metrics"
	"github.com/magabrotheeeer/dealer-users/internal/models"
	"github.com/magabrotheeeer/dealer-users/internal/storage/repository"
)

// DefaultSpec запуск раз в сутки в полночь.
const DefaultSpec = "0 0 * * *"

// ErrAlreadyRan возвращается, когда отметка за текущий день уже поставлена.
var ErrAlreadyRan = errors.New("decrement already ran today")

// SubscriptionRepository хранилище, из которого задача читает и в которое пишет дни подписки.
type SubscriptionRepository interface {
	FindUsersWithPositiveDuration(ctx context.Context) ([]models.DurationEntry, error)
	ApplySubscriptionUpdate(ctx context.Context, userUID string, upd models.SubscriptionUpdate) error
}

// RunGuard ставит отметку «за этот день задача уже выполнялась».
type RunGuard interface {
	Acquire(ctx context.Context, now time.Time) (bool, error)
	Release(ctx context.Context, now time.Time) error
}

// ExpiryPublisher уведомляет об окончании дней подписки.
type ExpiryPublisher interface {
	PublishSubscriptionExpired(ctx context.Context, event models.SubscriptionExpired) error
}

// Scheduler регистрирует функцию по cron-выражению. Его реализует *cron.Cron.
type Scheduler interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
}

// RunResult итог одного прогона.
// Skipped считает записи, у которых duration_day изменился между чтением и записью.
// Unprocessed считает записи, до которых прогон не дошёл из-за отмены ctx.
type RunResult struct {
	Found       int
	Decremented int
	Expired     int
	Failed      int
	Skipped     int
	Unprocessed int
}

// Option настраивает DecrementService.
type Option func(*DecrementService)

// WithGuard включает защиту от повторного запуска в течение суток.
func WithGuard(g RunGuard) Option {
	return func(s *DecrementService) { s.guard = g }
}

// WithPublisher включает публикацию событий subscription.expired.
func WithPublisher(p ExpiryPublisher) Option {
	return func(s *DecrementService) { s.publisher = p }
}

// WithMetrics подключает prometheus-метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *DecrementService) { s.metrics = m }
}

// WithRunTimeout ограничивает длительность одного прогона.
func WithRunTimeout(d time.Duration) Option {
	return func(s *DecrementService) { s.runTimeout = d }
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *DecrementService) { s.now = now }
}

// DecrementService раз в сутки уменьшает duration_day у пользователей с оставшимися днями
// и обнуляет car_create_limit, когда дни закончились.
type DecrementService struct {
	repo       SubscriptionRepository
	guard      RunGuard
	publisher  ExpiryPublisher
	metrics    *metrics.Metrics
	runTimeout time.Duration
	now        func() time.Time
	log        *slog.Logger
}

// NewDecrementService создает новый экземпляр DecrementService.
func NewDecrementService(repo SubscriptionRepository, log *slog.Logger, opts ...Option) *DecrementService {
	s := &DecrementService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start регистрирует задачу в планировщике. Каждый тик выполняет RunOnce;
// ошибка прогона только логируется, следующий тик пробует снова.
func (s *DecrementService) Start(ctx context.Context, sched Scheduler, spec string) (cron.EntryID, error) {
	const op = "services.DecrementService.Start"
	if spec == "" {
		spec = DefaultSpec
	}
	id, err := sched.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		runCtx := ctx
		if s.runTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
			defer cancel()
		}
		if _, err := s.RunOnce(runCtx); err != nil && !errors.Is(err, ErrAlreadyRan) {
			s.log.Error("decrement run failed", sl.Err(err))
		}
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("decrement job scheduled", slog.String("spec", spec))
	return id, nil
}

// RunOnce выполняет один проход списания. Ошибка выборки прерывает проход,
// ошибки отдельных записей логируются, и обработка продолжается.
// Отмена ctx останавливает проход, оставшиеся записи попадают в Unprocessed, прогон считается неудачным.
func (s *DecrementService) RunOnce(ctx context.Context) (RunResult, error) {
	const op = "services.DecrementService.RunOnce"
	started := s.now()
	var res RunResult

	if s.guard != nil {
		ok, err := s.guard.Acquire(ctx, started)
		if err != nil {
			s.metrics.ObserveRun(metrics.RunFailed, s.now().Sub(started))
			return res, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			s.log.Info("decrement already ran today, skipping")
			s.metrics.ObserveRun(metrics.RunSkipped, s.now().Sub(started))
			return res, fmt.Errorf("%s: %w", op, ErrAlreadyRan)
		}
	}

	s.log.Info("starting subscription decrement")
	entries, err := s.repo.FindUsersWithPositiveDuration(ctx)
	if err != nil {
		s.log.Error("failed to find users", sl.Err(err))
		if s.guard != nil {
			if relErr := s.guard.Release(ctx, started); relErr != nil {
				s.log.Error("failed to release daily guard", sl.Err(relErr))
			}
		}
		s.metrics.ObserveRun(metrics.RunFailed, s.now().Sub(started))
		return res, fmt.Errorf("%s: %w", op, err)
	}
	res.Found = len(entries)
	if len(entries) == 0 {
		s.log.Info("no users with remaining subscription days")
		s.metrics.ObserveRun(metrics.RunSuccess, s.now().Sub(started))
		return res, nil
	}
	s.log.Info("found users with remaining subscription days", slog.Int("count", len(entries)))

	for i, entry := range entries {
		if ctx.Err() != nil {
			res.Unprocessed = len(entries) - i
			break
		}

		upd := models.NextSubscriptionUpdate(entry.DurationDay)
		if err := s.repo.ApplySubscriptionUpdate(ctx, entry.UUID, upd); err != nil {
			if errors.Is(err, repository.ErrSubscriptionChanged) {
				res.Skipped++
				s.metrics.ObserveUser(metrics.UserSkipped)
				s.log.Info("subscription changed since it was read, skipping",
					slog.String("user_uid", entry.UUID))
				continue
			}
			if ctx.Err() != nil {
				res.Unprocessed = len(entries) - i
				break
			}
			res.Failed++
			s.metrics.ObserveUser(metrics.UserFailed)
			s.log.Error("failed to decrement subscription",
				slog.String("user_uid", entry.UUID), sl.Err(err))
			continue
		}

		if upd.CarCreateLimit == nil {
			res.Decremented++
			s.metrics.ObserveUser(metrics.UserDecremented)
			continue
		}

		res.Expired++
		s.metrics.ObserveUser(metrics.UserExpired)
		s.notifyExpired(ctx, entry)
	}

	// Отметку за день не снимаем: повторный прогон списал бы день ещё раз у уже обработанных.
	if res.Unprocessed > 0 {
		err := ctx.Err()
		s.log.Error("subscription decrement interrupted",
			slog.Int("found", res.Found),
			slog.Int("decremented", res.Decremented),
			slog.Int("expired", res.Expired),
			slog.Int("failed", res.Failed),
			slog.Int("unprocessed", res.Unprocessed),
			sl.Err(err))
		s.metrics.ObserveRun(metrics.RunFailed, s.now().Sub(started))
		return res, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription decrement finished",
		slog.Int("found", res.Found),
		slog.Int("decremented", res.Decremented),
		slog.Int("expired", res.Expired),
		slog.Int("failed", res.Failed),
		slog.Int("skipped", res.Skipped))
	s.metrics.ObserveRun(metrics.RunSuccess, s.now().Sub(started))
	return res, nil
}

func (s *DecrementService) notifyExpired(ctx context.Context, entry models.DurationEntry) {
	if s.publisher == nil {
		return
	}
	event := models.SubscriptionExpired{
		UserUID:   entry.UUID,
		Email:     entry.Email,
		ExpiredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishSubscriptionExpired(ctx, event); err != nil {
		s.log.Error("failed to publish message",
			slog.String("user_uid", entry.UUID), sl.Err(err))
	}
}
