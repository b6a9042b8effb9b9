// Package services содержит регистрацию, вход по паролю и через Google, а также смену пароля.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/dealer-users/internal/lib/googleauth"
	"github.com/magabrotheeeer/dealer-users/internal/lib/jwt"
	"github.com/magabrotheeeer/dealer-users/internal/lib/password"
	"github.com/magabrotheeeer/dealer-users/internal/models"
	"github.com/magabrotheeeer/dealer-users/internal/storage/repository"
)

var (
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserBlocked учётная запись заблокирована.
	ErrUserBlocked = errors.New("user is blocked")
	// ErrUserDeleted учётная запись удалена.
	ErrUserDeleted = errors.New("user is deleted")
	// ErrPasswordRequired у аккаунта Google нет пароля, вход по паролю невозможен.
	ErrPasswordRequired = errors.New("account has no password, use google login")
	// ErrNotGoogleAccount аккаунт с паролем нельзя открыть через Google.
	ErrNotGoogleAccount = errors.New("account uses password login")
	// ErrGoogleLoginDisabled не задан OAuth client id.
	ErrGoogleLoginDisabled = errors.New("google login is disabled")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя.
	CreateUser(ctx context.Context, user models.User) error
	// GetUserByEmail возвращает пользователя вместе с хешем пароля.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID возвращает пользователя по UID.
	GetUserByID(ctx context.Context, userUID string) (*models.User, error)
	// UpdatePassword точечно записывает новый хеш пароля.
	UpdatePassword(ctx context.Context, userUID, passwordHash string, changedAt time.Time) error
}

// RegisterInput данные для регистрации по email и паролю.
type RegisterInput struct {
	Email       string
	Password    string
	Role        string
	Name        *string
	PhoneNumber *string
}

// GoogleVerifier проверяет Google ID token. Его реализует *googleauth.Verifier.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (googleauth.Identity, error)
}

// Option настраивает AuthService.
type Option func(*AuthService)

// WithGoogleVerifier включает вход через Google.
func WithGoogleVerifier(v GoogleVerifier) Option {
	return func(s *AuthService) { s.google = v }
}

// AuthService отвечает за регистрацию, авторизацию и смену пароля.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	hasher   *password.Hasher
	google   GoogleVerifier
	now      func() time.Time
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, hasher *password.Hasher, opts ...Option) *AuthService {
	s := &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		hasher:   hasher,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register создает нового пользователя, хеширует пароль и возвращает сохранённую запись.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "services.AuthService.Register"
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	user := newUser(in.Email, role, false)
	user.Name = in.Name
	user.PhoneNumber = in.PhoneNumber

	hash, err := s.hasher.BeforeSave(user.IsGoogleLogin, in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.PasswordHash = hash

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// Login проверяет пароль пользователя и выдаёт JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.AuthService.Login"
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAccess(user); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.PasswordHash == nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrPasswordRequired)
	}
	if !s.IsPasswordMatched(rawPassword, *user.PasswordHash) {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.jwtMaker.GenerateToken(user.UUID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// GoogleLogin проверяет Google ID token, находит пользователя по email из токена
// или создаёт его без пароля и выдаёт JWT. Аккаунт с паролем через Google не открывается.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (string, *models.User, error) {
	const op = "services.AuthService.GoogleLogin"
	if s.google == nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrGoogleLoginDisabled)
	}
	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUserByEmail(ctx, identity.Email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		created := newUser(identity.Email, models.RoleUser, true)
		created.Name = identity.Name
		created.Image = identity.Picture
		if created.PasswordHash, err = s.hasher.BeforeSave(true, ""); err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.users.CreateUser(ctx, created); err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		user = &created
	case err != nil:
		return "", nil, fmt.Errorf("%s: %w", op, err)
	default:
		if err := checkAccess(user); err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		if !user.IsGoogleLogin {
			return "", nil, fmt.Errorf("%s: %w", op, ErrNotGoogleAccount)
		}
	}

	token, err := s.jwtMaker.GenerateToken(user.UUID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// IsPasswordMatched сравнивает открытый пароль с сохранённым хешем.
func (s *AuthService) IsPasswordMatched(plain, hash string) bool {
	return password.Matches(hash, plain)
}

// ChangePassword проверяет текущий пароль и записывает хеш нового.
func (s *AuthService) ChangePassword(ctx context.Context, userUID, oldPassword, newPassword string) error {
	const op = "services.AuthService.ChangePassword"
	user, err := s.users.GetUserByID(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAccess(user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.PasswordHash == nil {
		return fmt.Errorf("%s: %w", op, ErrPasswordRequired)
	}
	if !s.IsPasswordMatched(oldPassword, *user.PasswordHash) {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	hash, err := s.hasher.BeforeSave(false, newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, userUID, *hash, s.now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func newUser(email, role string, isGoogleLogin bool) models.User {
	return models.User{
		UUID:          uuid.NewString(),
		Email:         email,
		IsGoogleLogin: isGoogleLogin,
		Role:          role,
		Status:        models.StatusActive,
		Profile:       models.Profile{VATStatus: models.VATValid},
	}
}

func checkAccess(user *models.User) error {
	if user.IsDeleted {
		return ErrUserDeleted
	}
	if user.Status == models.StatusBlocked {
		return ErrUserBlocked
	}
	return nil
}
