package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/fitprogress/internal/migrations"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его UID
func (f *TestDataFactory) CreateUser(t *testing.T, username string) string {
	t.Helper()
	uid := uuid.New().String()
	_, err := f.storage.RegisterUser(context.Background(), models.User{
		UUID:         uid,
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "hashedpassword",
		CreatedAt:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return uid
}

func migrationsPath(t *testing.T, driver string) string {
	t.Helper()
	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	return filepath.Join(root, "migrations", driver)
}

// setupSQLite создает in-memory базу SQLite с применёнными миграциями
func setupSQLite(t *testing.T) *Storage {
	t.Helper()
	storage, err := New(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, migrations.Run(storage.DB, DriverSQLite, migrationsPath(t, DriverSQLite)))
	return storage
}

// setupPostgres создает тестовую БД с контейнером PostgreSQL
func setupPostgres(t *testing.T) *Storage {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(DriverPostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, migrations.Run(storage.DB, DriverPostgres, migrationsPath(t, DriverPostgres)))
	return storage
}

// forEachDriver запускает тест на SQLite и, если доступен Docker, на PostgreSQL
func forEachDriver(t *testing.T, fn func(t *testing.T, storage *Storage)) {
	t.Run(DriverSQLite, func(t *testing.T) {
		fn(t, setupSQLite(t))
	})
	t.Run(DriverPostgres, func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping container test in short mode")
		}
		fn(t, setupPostgres(t))
	})
}
