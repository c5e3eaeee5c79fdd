// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и дату регистрации.
// Структура используется в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хэш пароля пользователя
	CreatedAt    time.Time // Момент регистрации, от него считается доступ к оценке
}

// Session идентичность текущего запроса. Передаётся явно в каждую операцию ядра.
type Session struct {
	UserUID      string
	Username     string
	RegisteredAt time.Time // нулевое значение, если дата регистрации неизвестна
}

// RegisterRequest тело запроса регистрации.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest тело запроса входа.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
