package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/fitprogress/internal/lib/day"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// Переключение выполняется одним upsert: либо строка создаётся с отмеченным флагом,
// либо флаг инвертируется на месте. Частичной записи не бывает.
var toggleQueries = map[models.Activity]string{
	models.ActivityWorkout: `INSERT INTO daily_progress (user_uid, day, workout_done, diet_followed)
			  VALUES ($1, $2, TRUE, FALSE)
			  ON CONFLICT (user_uid, day) DO UPDATE
			  SET workout_done = NOT daily_progress.workout_done,
			      updated_at = CURRENT_TIMESTAMP
			  RETURNING workout_done, diet_followed`,
	models.ActivityDiet: `INSERT INTO daily_progress (user_uid, day, workout_done, diet_followed)
			  VALUES ($1, $2, FALSE, TRUE)
			  ON CONFLICT (user_uid, day) DO UPDATE
			  SET diet_followed = NOT daily_progress.diet_followed,
			      updated_at = CURRENT_TIMESTAMP
			  RETURNING workout_done, diet_followed`,
}

// GetRecord возвращает запись за день. Отсутствие записи не ошибка: (nil, nil).
func (s *Storage) GetRecord(ctx context.Context, userUID string, date time.Time) (*models.DailyProgress, error) {
	const op = "storage.GetRecord"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT workout_done, diet_followed
			  FROM daily_progress
			  WHERE user_uid = $1 AND day = $2`
	result := models.DailyProgress{UserUID: userUID, Date: day.Truncate(date)}
	err := s.DB.QueryRowContext(ctx, s.rebind(query), userUID, day.Format(date)).
		Scan(&result.WorkoutDone, &result.DietFollowed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListRecords возвращает записи пользователя за период, границы включительно и необязательны.
// Записи отсортированы по дате от новых к старым.
func (s *Storage) ListRecords(ctx context.Context, userUID string, from, to *time.Time) ([]models.DailyProgress, error) {
	const op = "storage.ListRecords"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sb strings.Builder
	sb.WriteString(`SELECT CAST(day AS TEXT), workout_done, diet_followed
			  FROM daily_progress
			  WHERE user_uid = $1`)
	args := []any{userUID}
	if from != nil {
		args = append(args, day.Format(*from))
		fmt.Fprintf(&sb, " AND day >= $%d", len(args))
	}
	if to != nil {
		args = append(args, day.Format(*to))
		fmt.Fprintf(&sb, " AND day <= $%d", len(args))
	}
	sb.WriteString(" ORDER BY day DESC")

	rows, err := s.DB.QueryContext(ctx, s.rebind(sb.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.DailyProgress, 0)
	for rows.Next() {
		var (
			raw  string
			item = models.DailyProgress{UserUID: userUID}
		)
		if err = rows.Scan(&raw, &item.WorkoutDone, &item.DietFollowed); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if item.Date, err = day.Parse(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ToggleFlag инвертирует отметку активности за день и возвращает итоговую запись.
// Если записи не было, она создаётся с отмеченной активностью и снятой второй.
func (s *Storage) ToggleFlag(ctx context.Context, userUID string, date time.Time, activity models.Activity) (*models.DailyProgress, error) {
	const op = "storage.ToggleFlag"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if !activity.Valid() {
		return nil, fmt.Errorf("%s: unknown activity %q", op, activity)
	}
	query := toggleQueries[activity]

	result := models.DailyProgress{UserUID: userUID, Date: day.Truncate(date)}
	if err := s.DB.QueryRowContext(ctx, s.rebind(query), userUID, day.Format(date)).
		Scan(&result.WorkoutDone, &result.DietFollowed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
