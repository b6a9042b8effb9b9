// Package services содержит операции пользователя над собственной учётной записью.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/dealer-users/internal/models"
	"github.com/magabrotheeeer/dealer-users/internal/storage/repository"
)

// ErrNothingToUpdate в запросе на обновление профиля нет ни одного поля.
var ErrNothingToUpdate = errors.New("nothing to update")

// UserRepository определяет методы хранилища, которые нужны UserService.
type UserRepository interface {
	GetUserByID(ctx context.Context, userUID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userUID string, upd models.ProfileUpdate) error
	SoftDelete(ctx context.Context, userUID string) error
}

// UserService выдаёт профиль, обновляет его и удаляет учётную запись.
type UserService struct {
	users UserRepository
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

// GetUser возвращает неудалённого пользователя по UID.
func (s *UserService) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.UserService.GetUser"
	user, err := s.users.GetUserByID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.IsDeleted {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrUserNotFound)
	}
	return user, nil
}

// UpdateProfile записывает только переданные поля профиля и возвращает обновлённую запись.
// Пароль и поля подписки не затрагиваются.
func (s *UserService) UpdateProfile(ctx context.Context, userUID string, upd models.ProfileUpdate) (*models.User, error) {
	const op = "services.UserService.UpdateProfile"
	if upd.Empty() {
		return nil, fmt.Errorf("%s: %w", op, ErrNothingToUpdate)
	}
	if err := s.users.UpdateProfile(ctx, userUID, upd); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUserByID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Delete помечает учётную запись удалённой.
func (s *UserService) Delete(ctx context.Context, userUID string) error {
	const op = "services.UserService.Delete"
	if err := s.users.SoftDelete(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
