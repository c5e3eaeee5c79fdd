// Package clock предоставляет источник текущего времени, который можно подменить в тестах.
package clock

import "time"

// Clock возвращает текущее время.
type Clock interface {
	Now() time.Time
}

// Real читает системные часы (UTC).
type Real struct{}

// Now возвращает текущее время в UTC.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed всегда возвращает одно и то же время.
type Fixed struct {
	T time.Time
}

// Now возвращает зафиксированное время.
func (f Fixed) Now() time.Time {
	return f.T
}

// Func адаптирует функцию к интерфейсу Clock.
type Func func() time.Time

// Now вызывает обёрнутую функцию.
func (f Func) Now() time.Time {
	return f()
}
