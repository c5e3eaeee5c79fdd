package models

import "errors"

var (
	// ErrUserExists пользователь с таким username или email уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials неверная пара логин/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// PersistenceError ошибка удалённого хранилища при чтении или записи.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
