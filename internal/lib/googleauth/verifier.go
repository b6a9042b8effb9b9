// Package googleauth проверяет Google ID token на стороне сервера и достаёт из него личность пользователя.
package googleauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

var (
	// ErrInvalidToken токен не прошёл проверку подписи, срока или аудитории.
	ErrInvalidToken = errors.New("invalid google id token")
	// ErrEmailNotVerified Google не подтвердил email владельца токена.
	ErrEmailNotVerified = errors.New("google email is not verified")
)

// Identity данные пользователя из проверенного токена.
type Identity struct {
	Subject string
	Email   string
	Name    *string
	Picture *string
}

// ValidateFunc проверяет токен для аудитории audience. Его реализует idtoken.Validate.
type ValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// Verifier проверяет токены, выпущенные для одного OAuth client id.
type Verifier struct {
	audience string
	validate ValidateFunc
}

// NewVerifier создаёт Verifier, который проверяет токены через ключи Google.
func NewVerifier(clientID string) *Verifier {
	return NewVerifierWithValidator(clientID, idtoken.Validate)
}

// NewVerifierWithValidator создаёт Verifier с собственной функцией проверки.
func NewVerifierWithValidator(clientID string, validate ValidateFunc) *Verifier {
	return &Verifier{audience: clientID, validate: validate}
}

// Verify проверяет токен и возвращает личность пользователя. Email обязателен и должен быть подтверждён.
func (v *Verifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	const op = "googleauth.Verifier.Verify"
	payload, err := v.validate(ctx, idToken, v.audience)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	id, err := identityFromPayload(payload)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func identityFromPayload(p *idtoken.Payload) (Identity, error) {
	if p == nil || p.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	email, _ := p.Claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Identity{}, fmt.Errorf("%w: email claim is missing", ErrInvalidToken)
	}
	if !emailVerified(p.Claims["email_verified"]) {
		return Identity{}, ErrEmailNotVerified
	}

	return Identity{
		Subject: p.Subject,
		Email:   email,
		Name:    optionalClaim(p.Claims, "name"),
		Picture: optionalClaim(p.Claims, "picture"),
	}, nil
}

// Google отдаёт email_verified то булевым значением, то строкой.
func emailVerified(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	}
	return false
}

func optionalClaim(claims map[string]any, key string) *string {
	s, ok := claims[key].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
