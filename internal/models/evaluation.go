package models

import "time"

// DefaultDaysRequired сколько дней после регистрации закрыт раздел оценки.
const DefaultDaysRequired = 7

// EvaluationAccess состояние доступа пользователя к разделу фото-оценки.
// IsUnlocked только переходит из false в true и обратно не возвращается.
type EvaluationAccess struct {
	UserUID          string    `json:"user_uid"`
	RegistrationDate time.Time `json:"registration_date"`
	DaysRequired     int       `json:"days_required"`
	IsUnlocked       bool      `json:"is_unlocked"`
}

// UnlockDate дата, начиная с которой раздел открыт.
func (a EvaluationAccess) UnlockDate() time.Time {
	return a.RegistrationDate.AddDate(0, 0, a.DaysRequired)
}

// UnlockStatus результат проверки доступа.
type UnlockStatus struct {
	IsUnlocked    bool      `json:"is_unlocked"`
	DaysRemaining int       `json:"days_remaining"`
	DaysRequired  int       `json:"days_required"`
	UnlockDate    time.Time `json:"unlock_date"`
}

// EvaluationUnlocked событие первого открытия раздела оценки.
type EvaluationUnlocked struct {
	UserUID    string    `json:"user_uid"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	UnlockedAt time.Time `json:"unlocked_at"`
}
