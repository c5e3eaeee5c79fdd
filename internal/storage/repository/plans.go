package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// GetPlan возвращает текст плана. Если план не сохранён, возвращает пустую строку.
func (s *Storage) GetPlan(ctx context.Context, userUID string, kind models.PlanKind) (string, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT content FROM plans WHERE user_uid = $1 AND kind = $2`
	var content string
	if err := s.DB.QueryRowContext(ctx, s.rebind(query), userUID, string(kind)).Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return content, nil
}

// SavePlan сохраняет или заменяет текст плана.
func (s *Storage) SavePlan(ctx context.Context, userUID string, kind models.PlanKind, content string) error {
	const op = "storage.SavePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO plans (user_uid, kind, content)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_uid, kind) DO UPDATE
			  SET content = excluded.content, updated_at = CURRENT_TIMESTAMP`
	if _, err := s.DB.ExecContext(ctx, s.rebind(query), userUID, string(kind), content); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
