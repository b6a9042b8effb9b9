package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/dealer-users/internal/models"
)

const userColumns = `uid, email, password_hash, is_google_login, role, status, is_deleted, is_approved,
	needs_password_change, password_changed_at,
	verification_otp, verification_expires_at, verification_status,
	duration_day, car_create_limit, free_limit, free_expair_date,
	name, phone_number, gender, date_of_birth, image, company_name, dealership, user_address,
	dealer_city, dealer_country, dealer_post_code, dealer_vat_id, dealer_street, vat_status, vat_type,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.UUID, &u.Email, &u.PasswordHash, &u.IsGoogleLogin, &u.Role, &u.Status,
		&u.IsDeleted, &u.IsApproved, &u.NeedsPasswordChange, &u.PasswordChangedAt,
		&u.Verification.OTP, &u.Verification.ExpiresAt, &u.Verification.Status,
		&u.DurationDay, &u.CarCreateLimit, &u.FreeLimit, &u.FreeExpairDate,
		&u.Name, &u.PhoneNumber, &u.Gender, &u.DateOfBirth, &u.Image, &u.CompanyName,
		&u.Dealership, &u.UserAddress,
		&u.DealerAddress.City, &u.DealerAddress.Country, &u.DealerAddress.PostCode,
		&u.DealerAddress.VATID, &u.DealerAddress.Street, &u.VATStatus, &u.VATType,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя. Пароль к этому моменту уже должен быть захеширован.
func (s *Storage) CreateUser(ctx context.Context, u models.User) error {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (uid, email, password_hash, is_google_login, role, status,
			      is_deleted, is_approved, verification_otp, verification_status,
			      duration_day, car_create_limit, free_limit, free_expair_date,
			      name, phone_number, image, vat_status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := s.DB.ExecContext(ctx, query,
		u.UUID, u.Email, u.PasswordHash, u.IsGoogleLogin, u.Role, u.Status,
		u.IsDeleted, u.IsApproved, u.Verification.OTP, u.Verification.Status,
		u.DurationDay, u.CarCreateLimit, u.FreeLimit, u.FreeExpairDate,
		u.Name, u.PhoneNumber, u.Image, u.VATStatus)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя вместе с хешем пароля.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	return s.getUser(ctx, op, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetUserByID возвращает пользователя по его UID.
func (s *Storage) GetUserByID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUserByID"
	return s.getUser(ctx, op, `SELECT `+userColumns+` FROM users WHERE uid = $1`, userUID)
}

func (s *Storage) getUser(ctx context.Context, op, query string, arg any) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateProfile обновляет только переданные поля профиля и updated_at.
func (s *Storage) UpdateProfile(ctx context.Context, userUID string, upd models.ProfileUpdate) error {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cols, args := upd.Columns()
	if len(cols) == 0 {
		return nil
	}
	sets := make([]string, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, userUID)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE uid = $%d AND is_deleted = false`,
		strings.Join(sets, ", "), len(args))
	return s.execTargeted(ctx, op, query, args...)
}

// UpdatePassword записывает новый хеш пароля и сбрасывает флаг обязательной смены.
func (s *Storage) UpdatePassword(ctx context.Context, userUID, passwordHash string, changedAt time.Time) error {
	const op = "storage.UpdatePassword"
	query := `UPDATE users
			  SET password_hash = $1,
			      password_changed_at = $2,
			      needs_password_change = false,
			      updated_at = NOW()
			  WHERE uid = $3`
	return s.execTargeted(ctx, op, query, passwordHash, changedAt, userUID)
}

// SoftDelete помечает пользователя удалённым. Строка из таблицы не удаляется.
func (s *Storage) SoftDelete(ctx context.Context, userUID string) error {
	const op = "storage.SoftDelete"
	query := `UPDATE users SET is_deleted = true, updated_at = NOW() WHERE uid = $1`
	return s.execTargeted(ctx, op, query, userUID)
}

func (s *Storage) execTargeted(ctx context.Context, op, query string, args ...any) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}
