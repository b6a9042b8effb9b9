package password

import (
	"errors"
	"fmt"
)

// ErrEmptyPassword у пользователя без входа через Google нет пароля.
var ErrEmptyPassword = errors.New("password is required")

// BeforeSave готовит пароль к записи в хранилище.
// Для входа через Google хеширование пропускается и возвращается nil.
// Иначе открытый пароль заменяется на bcrypt-хеш, открытый текст в хранилище не попадает.
func (h *Hasher) BeforeSave(isGoogleLogin bool, plain string) (*string, error) {
	const op = "password.BeforeSave"
	if isGoogleLogin {
		return nil, nil
	}
	if plain == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}
	hash, err := h.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &hash, nil
}
