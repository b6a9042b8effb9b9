package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/dealer-users/internal/migrations"
	"github.com/magabrotheeeer/dealer-users/internal/models"
	schema "github.com/magabrotheeeer/dealer-users/migrations"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUserWithDuration создает пользователя с заданным остатком дней и лимитом
func (f *TestDataFactory) CreateUserWithDuration(t *testing.T, email string, durationDay, carCreateLimit *int) string {
	uid := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO users (uid, email, password_hash, duration_day, car_create_limit, free_limit)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uid, email, "$2a$04$hashedpasswordhashedpasswordhashedpasswordhashe", durationDay, carCreateLimit, 3)
	require.NoError(t, err)
	return uid
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifySubscription проверяет duration_day и car_create_limit пользователя
func (v *TestVerification) VerifySubscription(t *testing.T, userUID string, wantDuration, wantLimit *int) {
	var duration, limit *int
	err := v.storage.DB.QueryRow("SELECT duration_day, car_create_limit FROM users WHERE uid = $1", userUID).
		Scan(&duration, &limit)
	require.NoError(t, err)
	require.Equal(t, wantDuration, duration)
	require.Equal(t, wantLimit, limit)
}

// Snapshot возвращает пользователя целиком для сравнения до и после операции
func (v *TestVerification) Snapshot(t *testing.T, userUID string) *models.User {
	u, err := v.storage.GetUserByID(context.Background(), userUID)
	require.NoError(t, err)
	return u
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

// setupTestDatabase поднимает PostgreSQL в контейнере и накатывает миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	require.NoError(t, migrations.Run(storage.DB, schema.Files), "Failed to apply migrations")
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	cleanup := func() {
		if storage != nil {
			_ = storage.Close()
		}
		_ = pgContainer.Terminate(ctx)
	}

	return storage, cleanup
}
