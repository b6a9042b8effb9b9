// Package models содержит доменную модель пользователя дилерского сервиса:
// учётные данные, состояние подписки, флаги статуса и профиль.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Статусы учётной записи.
const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

// Роли пользователей.
const (
	RoleUser   = "user"
	RoleDealer = "dealer"
	RoleAdmin  = "admin"
)

// Допустимые значения пола и статуса НДС.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOthers = "Others"

	VATValid    = "valid"
	VATNotValid = "vat not valid"
)

// User представляет сохранённую запись пользователя.
//
// PasswordHash пустой (nil) для пользователей, вошедших через Google.
// DurationDay может отсутствовать (nil), тогда ежедневное списание его не трогает.
type User struct {
	UUID                string       `json:"id"`
	Email               string       `json:"email"`
	PasswordHash        *string      `json:"-"`
	IsGoogleLogin       bool         `json:"isGoogleLogin"`
	Role                string       `json:"role"`
	Status              string       `json:"status"`
	IsDeleted           bool         `json:"isDeleted"`
	IsApproved          bool         `json:"isApproved"`
	NeedsPasswordChange *bool        `json:"needsPasswordChange,omitempty"`
	PasswordChangedAt   *time.Time   `json:"passwordChangedAt,omitempty"`
	Verification        Verification `json:"verification"`

	DurationDay    *int       `json:"durationDay"`
	CarCreateLimit *int       `json:"carCreateLimit"`
	FreeLimit      *int       `json:"freeLimit"`
	FreeExpairDate *time.Time `json:"freeExpairDate"`

	Profile

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Verification вложенная запись подтверждения аккаунта одноразовым кодом.
type Verification struct {
	OTP       int        `json:"otp"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Status    bool       `json:"status"`
}

// Profile данные профиля без инвариантов, все поля необязательные.
type Profile struct {
	Name          *string       `json:"name"`
	PhoneNumber   *string       `json:"phoneNumber"`
	Gender        *string       `json:"gender"`
	DateOfBirth   *string       `json:"dateOfBirth"`
	Image         *string       `json:"image"`
	CompanyName   *string       `json:"companyName"`
	Dealership    *string       `json:"dealership"`
	UserAddress   *string       `json:"user_address"`
	DealerAddress DealerAddress `json:"dealer_address"`
	VATStatus     string        `json:"vat_status"`
	VATType       *string       `json:"vat_type"`
}

// DealerAddress адрес дилерского центра.
type DealerAddress struct {
	City     *string `json:"city"`
	Country  *string `json:"country"`
	PostCode *string `json:"post_code"`
	VATID    *string `json:"vat_id"`
	Street   *string `json:"street"`
}

// IsActive сообщает, может ли пользователь входить в систему.
func (u *User) IsActive() bool {
	return u.Status == StatusActive && !u.IsDeleted
}
