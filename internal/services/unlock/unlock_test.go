package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	rediscache "github.com/magabrotheeeer/fitprogress/internal/cache"
	"github.com/magabrotheeeer/fitprogress/internal/config"
	"github.com/magabrotheeeer/fitprogress/internal/lib/clock"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// memRepo хранит строки доступа в памяти и считает вызовы.
type memRepo struct {
	mu        sync.Mutex
	rows      map[string]models.EvaluationAccess
	firstAt   map[string]time.Time
	failGet   error
	creates   int
	marks     int
	markedOff bool // MarkUnlocked возвращает ошибку
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]models.EvaluationAccess{}, firstAt: map[string]time.Time{}}
}

func (r *memRepo) GetAccess(_ context.Context, userUID string) (*models.EvaluationAccess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	row, ok := r.rows[userUID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *memRepo) CreateAccess(_ context.Context, access models.EvaluationAccess) (*models.EvaluationAccess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if _, ok := r.rows[access.UserUID]; !ok {
		r.rows[access.UserUID] = access
	}
	row := r.rows[access.UserUID]
	return &row, nil
}

func (r *memRepo) MarkUnlocked(_ context.Context, userUID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marks++
	if r.markedOff {
		return false, errors.New("write failed")
	}
	row, ok := r.rows[userUID]
	if !ok {
		return false, nil
	}
	row.IsUnlocked = true
	r.rows[userUID] = row
	if _, done := r.firstAt[userUID]; done {
		return false, nil
	}
	r.firstAt[userUID] = at
	return true, nil
}

// resetFlag сбрасывает сохранённый флаг, как это сделала бы ручная правка строки.
func (r *memRepo) resetFlag(userUID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.rows[userUID]
	row.IsUnlocked = false
	r.rows[userUID] = row
}

func (r *memRepo) stored(userUID string) models.EvaluationAccess {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[userUID]
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	args := m.Called(ctx, routingKey, message)
	return args.Error(0)
}

type UsersMock struct {
	mock.Mock
}

func (m *UsersMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	if fn, ok := args.Get(0).(func(any) bool); ok {
		return fn(result), args.Error(1)
	}
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func sessionRegistered(ago time.Duration) models.Session {
	return models.Session{UserUID: "uid-1", Username: "runner", RegisteredAt: now.Add(-ago)}
}

func TestCheckUnlock_Boundary(t *testing.T) {
	const dayDur = 24 * time.Hour

	tests := []struct {
		name          string
		ago           time.Duration
		wantUnlocked  bool
		wantRemaining int
	}{
		{name: "just registered", ago: 0, wantUnlocked: false, wantRemaining: 7},
		{name: "one day", ago: dayDur, wantUnlocked: false, wantRemaining: 6},
		{name: "six days 23 hours", ago: 6*dayDur + 23*time.Hour, wantUnlocked: false, wantRemaining: 1},
		{name: "exactly seven days", ago: 7 * dayDur, wantUnlocked: true, wantRemaining: 0},
		{name: "eight days", ago: 8 * dayDur, wantUnlocked: true, wantRemaining: 0},
		{name: "registration in the future", ago: -2 * dayDur, wantUnlocked: false, wantRemaining: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			svc := NewUnlockService(repo, clock.Fixed{T: now}, newNoopLogger(), Options{})

			got := svc.CheckUnlock(context.Background(), sessionRegistered(tt.ago), now)

			assert.Equal(t, tt.wantUnlocked, got.IsUnlocked)
			assert.Equal(t, tt.wantRemaining, got.DaysRemaining)
			assert.Equal(t, 7, got.DaysRequired)
			assert.Equal(t, tt.wantUnlocked, repo.rows["uid-1"].IsUnlocked)
		})
	}
}

func TestCheckUnlock_LazyCreate(t *testing.T) {
	repo := newMemRepo()
	svc := NewUnlockService(repo, nil, newNoopLogger(), Options{})
	session := sessionRegistered(2 * 24 * time.Hour)

	got := svc.CheckUnlock(context.Background(), session, now)
	assert.False(t, got.IsUnlocked)
	assert.Equal(t, 5, got.DaysRemaining)
	assert.Equal(t, session.RegisteredAt.AddDate(0, 0, 7), got.UnlockDate)

	svc.CheckUnlock(context.Background(), session, now)
	assert.Equal(t, 1, repo.creates, "row is created once")
	assert.Equal(t, 7, repo.rows["uid-1"].DaysRequired)
}

func TestCheckUnlock_MissingRegistrationFailsClosed(t *testing.T) {
	repo := newMemRepo()
	svc := NewUnlockService(repo, nil, newNoopLogger(), Options{})

	got := svc.CheckUnlock(context.Background(), models.Session{UserUID: "uid-1"}, now)
	assert.False(t, got.IsUnlocked)
	assert.Equal(t, 7, got.DaysRemaining)
	assert.Zero(t, repo.creates)
}

func TestCheckUnlock_StoreFailureFailsClosed(t *testing.T) {
	repo := newMemRepo()
	repo.failGet = errors.New("db down")
	svc := NewUnlockService(repo, nil, newNoopLogger(), Options{})

	got := svc.CheckUnlock(context.Background(), sessionRegistered(30*24*time.Hour), now)
	assert.False(t, got.IsUnlocked)
	assert.Equal(t, 7, got.DaysRemaining)
}

func TestCheckUnlock_LatchIsHonoured(t *testing.T) {
	repo := newMemRepo()
	repo.rows["uid-1"] = models.EvaluationAccess{
		UserUID:          "uid-1",
		RegistrationDate: now.AddDate(0, 0, -1),
		DaysRequired:     7,
		IsUnlocked:       true,
	}
	repo.firstAt["uid-1"] = now.AddDate(0, 0, -1)
	svc := NewUnlockService(repo, nil, newNoopLogger(), Options{})

	got := svc.CheckUnlock(context.Background(), sessionRegistered(24*time.Hour), now)
	assert.True(t, got.IsUnlocked)
	assert.Equal(t, 0, got.DaysRemaining)
	assert.True(t, repo.rows["uid-1"].IsUnlocked)
}

func TestCheckUnlock_ResetFlagIsRestored(t *testing.T) {
	tests := []struct {
		name      string
		withCache bool
	}{
		{name: "without cache", withCache: false},
		{name: "with redis cache", withCache: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			pub := new(PublisherMock)
			pub.On("Publish", mock.Anything, "evaluation.unlocked", mock.Anything).Return(nil)

			opts := Options{Publisher: pub}
			if tt.withCache {
				mr, err := miniredis.Run()
				require.NoError(t, err)
				t.Cleanup(mr.Close)
				c, err := rediscache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
				require.NoError(t, err)
				t.Cleanup(func() { _ = c.Close() })
				opts.Cache = c
			}
			svc := NewUnlockService(repo, nil, newNoopLogger(), opts)
			session := sessionRegistered(8 * 24 * time.Hour)

			got := svc.CheckUnlock(context.Background(), session, now)
			require.True(t, got.IsUnlocked)
			require.True(t, repo.stored("uid-1").IsUnlocked)

			repo.resetFlag("uid-1")

			got = svc.CheckUnlock(context.Background(), session, now.Add(time.Hour))
			assert.True(t, got.IsUnlocked)
			assert.Equal(t, 0, got.DaysRemaining)
			assert.True(t, repo.stored("uid-1").IsUnlocked, "reset flag is raised again")
			pub.AssertNumberOfCalls(t, "Publish", 1)
		})
	}
}

func TestCheckUnlock_PersistFailureStillReportsUnlocked(t *testing.T) {
	repo := newMemRepo()
	repo.markedOff = true
	pub := new(PublisherMock)
	svc := NewUnlockService(repo, nil, newNoopLogger(), Options{Publisher: pub})

	got := svc.CheckUnlock(context.Background(), sessionRegistered(10*24*time.Hour), now)
	assert.True(t, got.IsUnlocked)
	assert.False(t, repo.rows["uid-1"].IsUnlocked)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckUnlock_PublishesOnceOnTransition(t *testing.T) {
	repo := newMemRepo()
	pub := new(PublisherMock)
	users := new(UsersMock)
	users.On("GetUser", mock.Anything, "uid-1").
		Return(&models.User{UUID: "uid-1", Username: "runner", Email: "runner@example.com"}, nil).Once()
	pub.On("Publish", mock.Anything, "evaluation.unlocked", models.EvaluationUnlocked{
		UserUID:    "uid-1",
		Username:   "runner",
		Email:      "runner@example.com",
		UnlockedAt: now,
	}).Return(nil).Once()

	svc := NewUnlockService(repo, nil, newNoopLogger(), Options{Publisher: pub, Users: users})
	session := sessionRegistered(7 * 24 * time.Hour)

	for i := 0; i < 3; i++ {
		got := svc.CheckUnlock(context.Background(), session, now)
		require.True(t, got.IsUnlocked)
	}

	pub.AssertExpectations(t)
	users.AssertExpectations(t)
	assert.Equal(t, 3, repo.marks, "latch is re-asserted on every unlocked check")
}

func TestCheckUnlock_PublishErrorSwallowed(t *testing.T) {
	repo := newMemRepo()
	pub := new(PublisherMock)
	pub.On("Publish", mock.Anything, "evaluation.unlocked", mock.Anything).Return(errors.New("broker down")).Once()
	svc := NewUnlockService(repo, nil, newNoopLogger(), Options{Publisher: pub})

	got := svc.CheckUnlock(context.Background(), sessionRegistered(9*24*time.Hour), now)
	assert.True(t, got.IsUnlocked)
	assert.True(t, repo.rows["uid-1"].IsUnlocked)
	pub.AssertExpectations(t)
}

func TestCheckUnlock_UsesCache(t *testing.T) {
	repo := newMemRepo()
	repo.failGet = errors.New("must not be called")
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "evaluation:uid-1", mock.Anything).Return(func(result any) bool {
		*result.(*models.EvaluationAccess) = models.EvaluationAccess{
			UserUID:          "uid-1",
			RegistrationDate: now.AddDate(0, 0, -3),
			DaysRequired:     7,
		}
		return true
	}, nil).Once()

	svc := NewUnlockService(repo, nil, newNoopLogger(), Options{Cache: cache})
	got := svc.CheckUnlock(context.Background(), sessionRegistered(3*24*time.Hour), now)

	assert.False(t, got.IsUnlocked)
	assert.Equal(t, 4, got.DaysRemaining)
	cache.AssertExpectations(t)
}

func TestCheckUnlock_CacheErrorsAreIgnored(t *testing.T) {
	repo := newMemRepo()
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "evaluation:uid-1", mock.Anything).Return(false, errors.New("redis down"))
	cache.On("Set", mock.Anything, "evaluation:uid-1", mock.Anything, time.Hour).Return(errors.New("redis down"))

	svc := NewUnlockService(repo, nil, newNoopLogger(), Options{Cache: cache})
	got := svc.CheckUnlock(context.Background(), sessionRegistered(8*24*time.Hour), now)

	assert.True(t, got.IsUnlocked)
	assert.True(t, repo.rows["uid-1"].IsUnlocked)
}

func TestStatus_UsesServiceClock(t *testing.T) {
	repo := newMemRepo()
	svc := NewUnlockService(repo, clock.Fixed{T: now}, newNoopLogger(), Options{DaysRequired: 3})

	got := svc.Status(context.Background(), sessionRegistered(2*24*time.Hour))
	assert.False(t, got.IsUnlocked)
	assert.Equal(t, 1, got.DaysRemaining)
	assert.Equal(t, 3, got.DaysRequired)
}

// Однажды открытый доступ остаётся открытым при любых последующих проверках.
func TestCheckUnlock_LatchProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repo := newMemRepo()
		svc := NewUnlockService(repo, nil, newNoopLogger(), Options{})
		regOffset := time.Duration(rapid.IntRange(0, 20*24).Draw(t, "regHoursAgo")) * time.Hour
		session := models.Session{UserUID: "uid-1", RegisteredAt: now.Add(-regOffset)}

		checks := rapid.SliceOfN(rapid.IntRange(-10*24, 10*24), 1, 10).Draw(t, "checkHours")
		unlockedSeen := false
		for _, h := range checks {
			got := svc.CheckUnlock(context.Background(), session, now.Add(time.Duration(h)*time.Hour))
			if unlockedSeen && !got.IsUnlocked {
				t.Fatalf("access reverted to locked")
			}
			if got.IsUnlocked {
				unlockedSeen = true
				if !repo.rows["uid-1"].IsUnlocked {
					t.Fatalf("unlock was not persisted")
				}
				if got.DaysRemaining != 0 {
					t.Fatalf("unlocked with %d days remaining", got.DaysRemaining)
				}
			}
		}
	})
}
