package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/dealer-users/internal/models"
)

// FindUsersWithPositiveDuration возвращает пользователей, у которых остались дни подписки (duration_day > 0).
func (s *Storage) FindUsersWithPositiveDuration(ctx context.Context) ([]models.DurationEntry, error) {
	const op = "storage.FindUsersWithPositiveDuration"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, duration_day
			  FROM users
			  WHERE duration_day > 0
			  ORDER BY uid`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.DurationEntry
	for rows.Next() {
		var e models.DurationEntry
		if err = rows.Scan(&e.UUID, &e.Email, &e.DurationDay); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ApplySubscriptionUpdate точечно записывает duration_day и, если задан, car_create_limit.
// Запись меняется, только если duration_day всё ещё равен прочитанному значению, иначе
// возвращается ErrSubscriptionChanged. Остальные колонки, включая password_hash и updated_at, не затрагиваются.
func (s *Storage) ApplySubscriptionUpdate(ctx context.Context, userUID string, upd models.SubscriptionUpdate) error {
	const op = "storage.ApplySubscriptionUpdate"

	var err error
	if upd.CarCreateLimit == nil {
		query := `UPDATE users SET duration_day = $1 WHERE uid = $2 AND duration_day = $3`
		err = s.execTargeted(ctx, op, query, upd.DurationDay, userUID, upd.ExpectedDurationDay)
	} else {
		query := `UPDATE users SET duration_day = $1, car_create_limit = $2 WHERE uid = $3 AND duration_day = $4`
		err = s.execTargeted(ctx, op, query, upd.DurationDay, *upd.CarCreateLimit, userUID, upd.ExpectedDurationDay)
	}
	if errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("%s: %w", op, ErrSubscriptionChanged)
	}
	return err
}
