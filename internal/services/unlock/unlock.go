// Package services открывает раздел фото-оценки через заданное число дней после регистрации.
// Открытие необратимо: каждая проверка открытого доступа заново утверждает флаг в хранилище.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/fitprogress/internal/cache"
	"github.com/magabrotheeeer/fitprogress/internal/lib/clock"
	"github.com/magabrotheeeer/fitprogress/internal/lib/day"
	"github.com/magabrotheeeer/fitprogress/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/metrics"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// AccessRepository хранилище состояния доступа.
type AccessRepository interface {
	GetAccess(ctx context.Context, userUID string) (*models.EvaluationAccess, error)
	CreateAccess(ctx context.Context, access models.EvaluationAccess) (*models.EvaluationAccess, error)
	// MarkUnlocked поднимает флаг (повторно, если его сбросили) и сообщает,
	// было ли это первое открытие. Момент первого открытия at фиксируется один раз.
	MarkUnlocked(ctx context.Context, userUID string, at time.Time) (bool, error)
}

// UserRepository нужен, чтобы положить email в событие открытия.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// EventPublisher отправляет события в брокер.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Options необязательные зависимости UnlockService. Нулевые значения допустимы.
type Options struct {
	Cache        Cache
	CacheTTL     time.Duration
	Publisher    EventPublisher
	Users        UserRepository
	Metrics      *metrics.Metrics
	DaysRequired int
}

// UnlockService проверяет и фиксирует доступ к разделу оценки.
type UnlockService struct {
	repo         AccessRepository
	users        UserRepository
	cache        Cache
	cacheTTL     time.Duration
	publisher    EventPublisher
	clock        clock.Clock
	metrics      *metrics.Metrics
	daysRequired int
	log          *slog.Logger
}

// NewUnlockService создает новый экземпляр UnlockService.
func NewUnlockService(repo AccessRepository, clk clock.Clock, log *slog.Logger, opts Options) *UnlockService {
	if clk == nil {
		clk = clock.Real{}
	}
	if opts.DaysRequired <= 0 {
		opts.DaysRequired = models.DefaultDaysRequired
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &UnlockService{
		repo:         repo,
		users:        opts.Users,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		publisher:    opts.Publisher,
		clock:        clk,
		metrics:      opts.Metrics,
		daysRequired: opts.DaysRequired,
		log:          log,
	}
}

// Status проверяет доступ на текущий момент по часам сервиса.
func (s *UnlockService) Status(ctx context.Context, session models.Session) models.UnlockStatus {
	return s.CheckUnlock(ctx, session, s.clock.Now())
}

// CheckUnlock возвращает состояние доступа на момент now и при необходимости фиксирует открытие.
// Проверка не возвращает ошибок: при сбое хранилища или неизвестной дате регистрации
// раздел считается закрытым, сбой пишется в лог.
func (s *UnlockService) CheckUnlock(ctx context.Context, session models.Session, now time.Time) models.UnlockStatus {
	const op = "unlock.CheckUnlock"
	log := s.log.With(sl.Op(op), slog.String("user_uid", session.UserUID))

	access, err := s.loadAccess(ctx, session)
	if err != nil {
		log.Warn("evaluation access unavailable, keeping locked", sl.Err(err))
		s.metrics.UnlockCheck("failed")
		return s.locked()
	}
	if access == nil {
		log.Debug("registration date unknown, keeping locked")
		s.metrics.UnlockCheck("failed")
		return s.locked()
	}

	elapsed := day.Elapsed(access.RegistrationDate, now)
	unlocked := access.IsUnlocked || elapsed >= access.DaysRequired
	if unlocked {
		s.latch(ctx, log, session, access, now)
	}

	status := models.UnlockStatus{
		IsUnlocked:   unlocked,
		DaysRequired: access.DaysRequired,
		UnlockDate:   access.UnlockDate(),
	}
	if !status.IsUnlocked {
		status.DaysRemaining = max(0, access.DaysRequired-elapsed)
		s.metrics.UnlockCheck("locked")
	} else {
		s.metrics.UnlockCheck("unlocked")
	}
	return status
}

func (s *UnlockService) locked() models.UnlockStatus {
	return models.UnlockStatus{
		IsUnlocked:    false,
		DaysRemaining: s.daysRequired,
		DaysRequired:  s.daysRequired,
	}
}

// loadAccess читает строку доступа через кэш и создаёт её при первом обращении.
// (nil, nil) означает, что дата регистрации неизвестна и строку создать нельзя.
func (s *UnlockService) loadAccess(ctx context.Context, session models.Session) (*models.EvaluationAccess, error) {
	key := cache.EvaluationKey(session.UserUID)
	if s.cache != nil {
		var cached models.EvaluationAccess
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("failed to read cache", slog.String("key", key), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	access, err := s.repo.GetAccess(ctx, session.UserUID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "unlock.GetAccess", Err: err}
	}
	if access == nil {
		if session.RegisteredAt.IsZero() {
			return nil, nil
		}
		access, err = s.repo.CreateAccess(ctx, models.EvaluationAccess{
			UserUID:          session.UserUID,
			RegistrationDate: session.RegisteredAt.UTC(),
			DaysRequired:     s.daysRequired,
		})
		if err != nil {
			return nil, &models.PersistenceError{Op: "unlock.CreateAccess", Err: err}
		}
		s.log.Info("evaluation access created",
			slog.String("user_uid", session.UserUID),
			slog.Time("unlock_date", access.UnlockDate()))
	}

	s.remember(ctx, access)
	return access, nil
}

// latch фиксирует открытие в хранилище при каждой проверке открытого доступа,
// кэш при этом не учитывается. Сбой записи не меняет ответ: время уже прошло,
// следующая проверка повторит попытку.
func (s *UnlockService) latch(ctx context.Context, log *slog.Logger, session models.Session, access *models.EvaluationAccess, now time.Time) {
	first, err := s.repo.MarkUnlocked(ctx, session.UserUID, now.UTC())
	if err != nil {
		log.Warn("failed to persist unlock", sl.Err(err))
		return
	}
	if !access.IsUnlocked {
		access.IsUnlocked = true
		s.remember(ctx, access)
	}
	if !first {
		return
	}

	s.metrics.Unlocked()
	log.Info("evaluation unlocked")
	s.publishUnlocked(ctx, log, session, now)
}

func (s *UnlockService) publishUnlocked(ctx context.Context, log *slog.Logger, session models.Session, now time.Time) {
	if s.publisher == nil {
		return
	}
	event := models.EvaluationUnlocked{
		UserUID:    session.UserUID,
		Username:   session.Username,
		UnlockedAt: now.UTC(),
	}
	if s.users != nil {
		user, err := s.users.GetUser(ctx, session.UserUID)
		if err != nil {
			log.Warn("failed to load user for unlock event", sl.Err(err))
			return
		}
		event.Email = user.Email
		event.Username = user.Username
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingKeyEvaluationUnlocked, event); err != nil {
		log.Warn("failed to publish unlock event", sl.Err(err))
	}
}

func (s *UnlockService) remember(ctx context.Context, access *models.EvaluationAccess) {
	if s.cache == nil {
		return
	}
	key := cache.EvaluationKey(access.UserUID)
	if err := s.cache.Set(ctx, key, access, s.cacheTTL); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
}
