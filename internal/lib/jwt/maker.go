// Package jwt выпускает и проверяет токены доступа. В токене лежит всё,
// что нужно для сессии: UID пользователя, username и момент регистрации.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/fitprogress/internal/lib/clock"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// Maker описывает выпуск и разбор токенов сессии.
type Maker interface {
	GenerateToken(session models.Session) (string, error)
	ParseToken(tokenStr string) (*models.Session, error)
}

// CustomClaims пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	UserUID      string `json:"uid"`
	Username     string `json:"username"`
	RegisteredAt int64  `json:"registered_at,omitempty"` // unix-секунды, 0 если неизвестно
	jwt.RegisteredClaims
}

// Session восстанавливает сессию из claims.
func (c *CustomClaims) Session() *models.Session {
	s := &models.Session{UserUID: c.UserUID, Username: c.Username}
	if c.RegisteredAt > 0 {
		s.RegisteredAt = time.Unix(c.RegisteredAt, 0).UTC()
	}
	return s
}

// MakerImpl подписывает токены HS256 секретным ключом.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	clock     clock.Clock
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration, clk clock.Clock) *MakerImpl {
	if clk == nil {
		clk = clock.Real{}
	}
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		clock:     clk,
	}
}

// GenerateToken создаёт подписанный токен для сессии.
func (j *MakerImpl) GenerateToken(session models.Session) (string, error) {
	const op = "jwt.GenerateToken"
	if session.UserUID == "" {
		return "", fmt.Errorf("%s: empty user uid", op)
	}

	now := j.clock.Now()
	claims := CustomClaims{
		UserUID:  session.UserUID,
		Username: session.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	if !session.RegisteredAt.IsZero() {
		claims.RegisteredAt = session.RegisteredAt.Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия и возвращает сессию.
func (j *MakerImpl) ParseToken(tokenStr string) (*models.Session, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithTimeFunc(j.clock.Now))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.UserUID == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("token without uid"))
	}
	return claims.Session(), nil
}
