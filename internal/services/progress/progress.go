// Package services содержит операции хранилища прогресса: чтение дня, выборка за период,
// переключение отметки и сводку серий.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/fitprogress/internal/lib/day"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/metrics"
	"github.com/magabrotheeeer/fitprogress/internal/models"
	streak "github.com/magabrotheeeer/fitprogress/internal/services/streak"
)

// ProgressRepository определяет методы работы с записями прогресса в хранилище.
type ProgressRepository interface {
	// GetRecord возвращает запись за день или nil, если её нет.
	GetRecord(ctx context.Context, userUID string, date time.Time) (*models.DailyProgress, error)
	// ListRecords возвращает записи за период, границы необязательны.
	ListRecords(ctx context.Context, userUID string, from, to *time.Time) ([]models.DailyProgress, error)
	// ToggleFlag атомарно инвертирует отметку и возвращает итоговую запись.
	ToggleFlag(ctx context.Context, userUID string, date time.Time, activity models.Activity) (*models.DailyProgress, error)
}

// ProgressService реализует бизнес-логику прогресса поверх хранилища.
type ProgressService struct {
	repo    ProgressRepository
	calc    *streak.Calculator
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewProgressService создает новый экземпляр ProgressService.
func NewProgressService(repo ProgressRepository, calc *streak.Calculator, m *metrics.Metrics, log *slog.Logger) *ProgressService {
	return &ProgressService{
		repo:    repo,
		calc:    calc,
		metrics: m,
		log:     log,
	}
}

// GetRecord возвращает запись за день. Отсутствие записи не ошибка.
func (s *ProgressService) GetRecord(ctx context.Context, session models.Session, date time.Time) (*models.DailyProgress, error) {
	const op = "progress.GetRecord"
	record, err := s.repo.GetRecord(ctx, session.UserUID, day.Truncate(date))
	if err != nil {
		return nil, &models.PersistenceError{Op: op, Err: err}
	}
	return record, nil
}

// ListRecords возвращает записи пользователя за период от новых к старым.
func (s *ProgressService) ListRecords(ctx context.Context, session models.Session, from, to *time.Time) ([]models.DailyProgress, error) {
	const op = "progress.ListRecords"
	records, err := s.repo.ListRecords(ctx, session.UserUID, from, to)
	if err != nil {
		return nil, &models.PersistenceError{Op: op, Err: err}
	}
	return records, nil
}

// ToggleFlag переключает отметку activity за день и возвращает итоговую запись.
// Ошибка хранилища возвращается как *models.PersistenceError, запись при этом не меняется.
func (s *ProgressService) ToggleFlag(ctx context.Context, session models.Session, date time.Time, activity models.Activity) (*models.DailyProgress, error) {
	const op = "progress.ToggleFlag"
	log := s.log.With(sl.Op(op), slog.String("user_uid", session.UserUID), slog.String("activity", string(activity)))

	record, err := s.repo.ToggleFlag(ctx, session.UserUID, day.Truncate(date), activity)
	s.metrics.Toggle(string(activity), err)
	if err != nil {
		log.Error("toggle failed", sl.Err(err))
		return nil, &models.PersistenceError{Op: op, Err: err}
	}

	log.Debug("flag toggled",
		slog.String("date", day.Format(date)),
		slog.Bool("workout_done", record.WorkoutDone),
		slog.Bool("diet_followed", record.DietFollowed))
	return record, nil
}

// Summary возвращает серии, процент выполнения и календарь на дату asOf.
// Процент считается по всем записям пользователя, календарь по последним дням окна.
func (s *ProgressService) Summary(ctx context.Context, session models.Session, asOf time.Time) (*models.Summary, error) {
	const op = "progress.Summary"
	to := day.Truncate(asOf)
	records, err := s.repo.ListRecords(ctx, session.UserUID, nil, &to)
	if err != nil {
		return nil, &models.PersistenceError{Op: op, Err: err}
	}
	summary := s.calc.Summary(records, asOf)
	return &summary, nil
}
