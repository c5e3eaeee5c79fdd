// Package password хеширует и проверяет пароли bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// Hash возвращает bcrypt‑хэш пароля для хранения в базе.
func Hash(password string) (string, error) {
	const op = "password.Hash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Verify сверяет пароль с хэшем. Несовпадение возвращается как models.ErrInvalidCredentials.
func Verify(hash, password string) error {
	const op = "password.Verify"
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
