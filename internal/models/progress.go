package models

import "time"

// Activity вид ежедневной активности.
type Activity string

const (
	ActivityWorkout Activity = "workout"
	ActivityDiet    Activity = "diet"
)

// Valid сообщает, известен ли вид активности.
func (a Activity) Valid() bool {
	return a == ActivityWorkout || a == ActivityDiet
}

// DailyProgress отметки пользователя за один календарный день.
// Запись уникальна по (UserUID, Date) и никогда не удаляется.
type DailyProgress struct {
	UserUID      string    `json:"-"`
	Date         time.Time `json:"date"`
	WorkoutDone  bool      `json:"workout_done"`
	DietFollowed bool      `json:"diet_followed"`
}

// Flag возвращает отметку для указанной активности.
func (p DailyProgress) Flag(a Activity) bool {
	switch a {
	case ActivityWorkout:
		return p.WorkoutDone
	case ActivityDiet:
		return p.DietFollowed
	}
	return false
}

// ToggleRequest тело запроса переключения отметки.
type ToggleRequest struct {
	Activity string `json:"activity" validate:"required,oneof=workout diet"`
}

// CalendarDay ячейка календаря прогресса.
type CalendarDay struct {
	Date         string `json:"date"`
	WorkoutDone  bool   `json:"workout_done"`
	DietFollowed bool   `json:"diet_followed"`
}

// Summary сводка прогресса на дату AsOf.
type Summary struct {
	AsOf              string        `json:"as_of"`
	WorkoutStreak     int           `json:"workout_streak"`
	DietStreak        int           `json:"diet_streak"`
	CompletionPercent int           `json:"completion_percent"`
	Calendar          []CalendarDay `json:"calendar"`
}
