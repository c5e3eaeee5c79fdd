// Package services хранит тексты планов питания и тренировок и отдаёт их разобранными по дням.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/fitprogress/internal/lib/plan"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// ErrUnknownKind вид плана не поддерживается.
var ErrUnknownKind = errors.New("unknown plan kind")

// PlanRepository хранилище текстов планов.
type PlanRepository interface {
	GetPlan(ctx context.Context, userUID string, kind models.PlanKind) (string, error)
	SavePlan(ctx context.Context, userUID string, kind models.PlanKind, content string) error
}

// PlanService отвечает за сохранение и разбор планов.
type PlanService struct {
	repo PlanRepository
	log  *slog.Logger
}

// NewPlanService создает новый экземпляр PlanService.
func NewPlanService(repo PlanRepository, log *slog.Logger) *PlanService {
	return &PlanService{repo: repo, log: log}
}

// Get возвращает план пользователя. Если план не сохранён, Days и Content пусты.
func (s *PlanService) Get(ctx context.Context, session models.Session, kind models.PlanKind) (*models.Plan, error) {
	const op = "plan.Get"
	if !kind.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownKind)
	}
	content, err := s.repo.GetPlan(ctx, session.UserUID, kind)
	if err != nil {
		return nil, &models.PersistenceError{Op: op, Err: err}
	}
	return build(kind, content), nil
}

// Save заменяет текст плана и возвращает его разобранный вид.
func (s *PlanService) Save(ctx context.Context, session models.Session, kind models.PlanKind, content string) (*models.Plan, error) {
	const op = "plan.Save"
	if !kind.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownKind)
	}
	content = strings.TrimSpace(content)
	if err := s.repo.SavePlan(ctx, session.UserUID, kind, content); err != nil {
		return nil, &models.PersistenceError{Op: op, Err: err}
	}
	parsed := build(kind, content)
	s.log.Debug("plan saved",
		slog.String("user_uid", session.UserUID),
		slog.String("kind", string(kind)),
		slog.Int("days", len(parsed.Days)))
	return parsed, nil
}

func build(kind models.PlanKind, content string) *models.Plan {
	return &models.Plan{
		Kind:    kind,
		Content: content,
		Plan:    plan.Parse(content),
	}
}
