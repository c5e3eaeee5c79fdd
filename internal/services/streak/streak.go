// Package services считает серии подряд идущих дней и общий процент выполнения программы.
// Функции чистые: на вход только уже загруженные записи, без обращения к хранилищу.
package services

import (
	"math"
	"time"

	"github.com/magabrotheeeer/fitprogress/internal/lib/day"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

const (
	// DefaultWindowDays сколько дней назад просматривается серия.
	DefaultWindowDays = 30
	// DefaultGoalDays длина программы, от которой считается процент.
	DefaultGoalDays = 30
)

// Calculator считает серии и процент выполнения.
type Calculator struct {
	windowDays int
	goalDays   int
}

// NewCalculator создаёт калькулятор. Неположительные значения заменяются значениями по умолчанию.
func NewCalculator(windowDays, goalDays int) *Calculator {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if goalDays <= 0 {
		goalDays = DefaultGoalDays
	}
	return &Calculator{windowDays: windowDays, goalDays: goalDays}
}

// ComputeStreak число подряд идущих дней с отметкой activity, заканчивая asOf включительно.
// Отсутствующая запись считается неотмеченным днём. Результат не больше windowDays.
func (c *Calculator) ComputeStreak(records []models.DailyProgress, activity models.Activity, asOf time.Time) int {
	done := make(map[string]bool, len(records))
	for _, r := range records {
		if r.Flag(activity) {
			done[day.Format(r.Date)] = true
		}
	}

	anchor := day.Truncate(asOf)
	streak := 0
	for i := 0; i < c.windowDays; i++ {
		if !done[day.Format(anchor.AddDate(0, 0, -i))] {
			break
		}
		streak++
	}
	return streak
}

// ComputeCompletionPercentage доля отмеченных флагов за всё время от goalDays*2, в процентах.
// Округление до ближайшего целого, результат в [0, 100].
func (c *Calculator) ComputeCompletionPercentage(records []models.DailyProgress) int {
	total := 0
	for _, r := range records {
		if r.WorkoutDone {
			total++
		}
		if r.DietFollowed {
			total++
		}
	}

	pct := int(math.Round(float64(total) / float64(c.goalDays*2) * 100))
	return min(max(pct, 0), 100)
}

// Calendar ячейки последних windowDays дней, заканчивая asOf, по возрастанию даты.
func (c *Calculator) Calendar(records []models.DailyProgress, asOf time.Time) []models.CalendarDay {
	byDate := make(map[string]models.DailyProgress, len(records))
	for _, r := range records {
		key := day.Format(r.Date)
		prev := byDate[key]
		byDate[key] = models.DailyProgress{
			WorkoutDone:  prev.WorkoutDone || r.WorkoutDone,
			DietFollowed: prev.DietFollowed || r.DietFollowed,
		}
	}

	window := day.Window(asOf, c.windowDays)
	cells := make([]models.CalendarDay, 0, len(window))
	for _, d := range window {
		key := day.Format(d)
		r := byDate[key]
		cells = append(cells, models.CalendarDay{
			Date:         key,
			WorkoutDone:  r.WorkoutDone,
			DietFollowed: r.DietFollowed,
		})
	}
	return cells
}

// Summary собирает серии, процент и календарь на дату asOf.
func (c *Calculator) Summary(records []models.DailyProgress, asOf time.Time) models.Summary {
	return models.Summary{
		AsOf:              day.Format(asOf),
		WorkoutStreak:     c.ComputeStreak(records, models.ActivityWorkout, asOf),
		DietStreak:        c.ComputeStreak(records, models.ActivityDiet, asOf),
		CompletionPercent: c.ComputeCompletionPercentage(records),
		Calendar:          c.Calendar(records, asOf),
	}
}
