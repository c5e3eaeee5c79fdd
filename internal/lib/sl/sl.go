// Package sl содержит вспомогательные функции для работы с логгером slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil-ошибки значение пустое, чтобы best-effort ветки могли логировать без проверок.
//
// Пример:
//
//	log.Warn("failed to publish event", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Op возвращает атрибут с именем операции ("pkg.Func").
func Op(op string) slog.Attr {
	return slog.String("op", op)
}
