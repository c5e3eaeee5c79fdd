// Package day содержит арифметику календарных дней: нормализация к дате без времени,
// разбор формата YYYY-MM-DD и подсчёт целых прошедших суток.
package day

import (
	"fmt"
	"time"
)

// Layout формат даты в URL и JSON.
const Layout = "2006-01-02"

// Truncate отбрасывает время суток: календарная дата t (в её собственной зоне) в полночь UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Parse разбирает дату формата YYYY-MM-DD.
func Parse(s string) (time.Time, error) {
	const op = "day.Parse"
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// Format форматирует дату как YYYY-MM-DD.
func Format(t time.Time) string {
	return Truncate(t).Format(Layout)
}

// Back возвращает дату на n дней раньше.
func Back(t time.Time, n int) time.Time {
	return Truncate(t).AddDate(0, 0, -n)
}

// Elapsed считает целые сутки между from и to (округление вниз).
// Если to раньше from, возвращает 0.
func Elapsed(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}

// Window возвращает n последовательных дат, заканчивая end (включительно), по возрастанию.
func Window(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	res := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		res = append(res, Back(end, i))
	}
	return res
}
