package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// GetAccess возвращает состояние доступа к оценке. Если строки нет, (nil, nil).
func (s *Storage) GetAccess(ctx context.Context, userUID string) (*models.EvaluationAccess, error) {
	const op = "storage.GetAccess"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT registration_date, days_required, is_unlocked
			  FROM evaluation_access
			  WHERE user_uid = $1`
	access := models.EvaluationAccess{UserUID: userUID}
	err := s.DB.QueryRowContext(ctx, s.rebind(query), userUID).
		Scan(&access.RegistrationDate, &access.DaysRequired, &access.IsUnlocked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	access.RegistrationDate = access.RegistrationDate.UTC()
	return &access, nil
}

// CreateAccess создаёт строку доступа, если её ещё нет, и возвращает сохранённое состояние.
// При гонке двух первых обращений выигрывает первая вставка.
func (s *Storage) CreateAccess(ctx context.Context, access models.EvaluationAccess) (*models.EvaluationAccess, error) {
	const op = "storage.CreateAccess"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO evaluation_access (user_uid, registration_date, days_required, is_unlocked)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_uid) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, s.rebind(query),
		access.UserUID, access.RegistrationDate.UTC(), access.DaysRequired, access.IsUnlocked); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stored, err := s.GetAccess(ctx, access.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%s: access row for %s vanished", op, access.UserUID)
	}
	return stored, nil
}

// MarkUnlocked выставляет флаг открытия, в том числе повторно, если флаг был сброшен.
// Момент первого открытия at записывается в unlocked_at один раз.
// Возвращает true, только если этот вызов записал unlocked_at.
func (s *Storage) MarkUnlocked(ctx context.Context, userUID string, at time.Time) (bool, error) {
	const op = "storage.MarkUnlocked"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	firstQuery := `UPDATE evaluation_access
				   SET unlocked_at = $2
				   WHERE user_uid = $1 AND unlocked_at IS NULL`
	result, err := tx.ExecContext(ctx, s.rebind(firstQuery), userUID, at.UTC())
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	latchQuery := `UPDATE evaluation_access
				   SET is_unlocked = TRUE
				   WHERE user_uid = $1 AND is_unlocked = FALSE`
	if _, err = tx.ExecContext(ctx, s.rebind(latchQuery), userUID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}
