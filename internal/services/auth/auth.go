// Package services содержит логику регистрации, входа и проверки токенов.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/fitprogress/internal/lib/clock"
	"github.com/magabrotheeeer/fitprogress/internal/lib/jwt"
	"github.com/magabrotheeeer/fitprogress/internal/lib/password"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или models.ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	clock    clock.Clock
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, clk clock.Clock) *AuthService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		clock:    clk,
	}
}

// Register создает нового пользователя. Момент регистрации берётся из часов сервиса
// и дальше служит точкой отсчёта для открытия раздела оценки.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "auth.Register"
	hashed, err := password.Hash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		UUID:         uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Username:     strings.TrimSpace(username),
		PasswordHash: hashed,
		CreatedAt:    s.clock.Now().UTC(),
	}
	return s.users.RegisterUser(ctx, user)
}

// Login проверяет пароль пользователя и выпускает JWT сессии.
// Неизвестный пользователь и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return "", fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.Verify(user.PasswordHash, rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	token, err := s.jwtMaker.GenerateToken(models.Session{
		UserUID:      user.UUID,
		Username:     user.Username,
		RegisteredAt: user.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ValidateToken проверяет JWT и возвращает сессию пользователя.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.Session, error) {
	return s.jwtMaker.ParseToken(token)
}
