package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/dealer-users/internal/models"
)

func newUser(email string) models.User {
	return models.User{
		UUID:         uuid.New().String(),
		Email:        email,
		PasswordHash: strPtr("$2a$04$somethingsomethingsomethingsomethingsomethingsome"),
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		Profile: models.Profile{
			Name:      strPtr("John"),
			VATStatus: models.VATValid,
		},
	}
}

func TestStorage_CreateAndGetUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	u := newUser("john@example.com")
	require.NoError(t, storage.CreateUser(ctx, u))

	byEmail, err := storage.GetUserByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.UUID, byEmail.UUID)
	assert.Equal(t, *u.PasswordHash, *byEmail.PasswordHash)
	assert.Equal(t, "John", *byEmail.Name)
	assert.Nil(t, byEmail.DurationDay)
	assert.False(t, byEmail.IsDeleted)

	byID, err := storage.GetUserByID(ctx, u.UUID)
	require.NoError(t, err)
	assert.Equal(t, byEmail.Email, byID.Email)

	err = storage.CreateUser(ctx, newUser("john@example.com"))
	require.ErrorIs(t, err, ErrUserExists)

	_, err = storage.GetUserByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_GoogleUserWithoutPassword(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	u := newUser("google@example.com")
	u.PasswordHash = nil
	u.IsGoogleLogin = true
	require.NoError(t, storage.CreateUser(ctx, u))

	got, err := storage.GetUserByID(ctx, u.UUID)
	require.NoError(t, err)
	assert.Nil(t, got.PasswordHash)
	assert.True(t, got.IsGoogleLogin)
}

func TestStorage_UpdateProfile(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	u := newUser("dealer@example.com")
	u.DurationDay = intPtr(9)
	u.CarCreateLimit = intPtr(4)
	require.NoError(t, storage.CreateUser(ctx, u))

	err := storage.UpdateProfile(ctx, u.UUID, models.ProfileUpdate{
		Dealership: strPtr("Best Cars"),
		City:       strPtr("Berlin"),
	})
	require.NoError(t, err)

	got, err := storage.GetUserByID(ctx, u.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Best Cars", *got.Dealership)
	assert.Equal(t, "Berlin", *got.DealerAddress.City)
	assert.Equal(t, "John", *got.Name)
	assert.Equal(t, *u.PasswordHash, *got.PasswordHash)
	assert.Equal(t, 9, *got.DurationDay)
	assert.Equal(t, 4, *got.CarCreateLimit)

	require.NoError(t, storage.UpdateProfile(ctx, u.UUID, models.ProfileUpdate{}))

	err = storage.UpdateProfile(ctx, uuid.New().String(), models.ProfileUpdate{Name: strPtr("x")})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_UpdatePasswordAndSoftDelete(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	u := newUser("pw@example.com")
	require.NoError(t, storage.CreateUser(ctx, u))

	changedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, storage.UpdatePassword(ctx, u.UUID, "new-hash", changedAt))

	got, err := storage.GetUserByID(ctx, u.UUID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", *got.PasswordHash)
	require.NotNil(t, got.PasswordChangedAt)
	assert.True(t, changedAt.Equal(*got.PasswordChangedAt))
	require.NotNil(t, got.NeedsPasswordChange)
	assert.False(t, *got.NeedsPasswordChange)

	require.NoError(t, storage.SoftDelete(ctx, u.UUID))
	got, err = storage.GetUserByID(ctx, u.UUID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)

	err = storage.UpdateProfile(ctx, u.UUID, models.ProfileUpdate{Name: strPtr("ghost")})
	require.ErrorIs(t, err, ErrUserNotFound, "deleted users are not updatable")
}
