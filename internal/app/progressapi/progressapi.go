package progressapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fitprogress/internal/cache"
	"github.com/magabrotheeeer/fitprogress/internal/config"
	"github.com/magabrotheeeer/fitprogress/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitprogress/internal/lib/clock"
	"github.com/magabrotheeeer/fitprogress/internal/lib/jwt"
	"github.com/magabrotheeeer/fitprogress/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/metrics"
	"github.com/magabrotheeeer/fitprogress/internal/migrations"
	authservice "github.com/magabrotheeeer/fitprogress/internal/services/auth"
	planservice "github.com/magabrotheeeer/fitprogress/internal/services/plan"
	progressservice "github.com/magabrotheeeer/fitprogress/internal/services/progress"
	streak "github.com/magabrotheeeer/fitprogress/internal/services/streak"
	unlockservice "github.com/magabrotheeeer/fitprogress/internal/services/unlock"
	"github.com/magabrotheeeer/fitprogress/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервер API прогресса со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New поднимает хранилище, применяет миграции и подключает необязательные Redis и RabbitMQ.
// Пустой адрес Redis отключает кэш, пустой URL RabbitMQ отключает события.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.Storage.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, db.Driver(), cfg.MigrationsPath); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("failed to close storage", sl.Err(closeErr))
		}
		return nil, err
	}

	app := &App{logger: logger, db: db}
	unlockOpts := unlockservice.Options{
		CacheTTL:     cfg.CacheTTL,
		Users:        db,
		DaysRequired: cfg.EvaluationDaysRequired,
	}

	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, err
		}
		app.cache = cacheRedis
		unlockOpts.Cache = cacheRedis
	}

	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, err
		}
		app.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetProgressQueues())
		if err != nil {
			app.close()
			return nil, err
		}
		app.ch = ch
		unlockOpts.Publisher = rabbitmq.NewPublisher(ch)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, buildServices(cfg, logger, db, clock.Real{}, prometheus.DefaultRegisterer, unlockOpts))

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// buildServices связывает сервисы поверх хранилища.
func buildServices(cfg *config.Config, logger *slog.Logger, db *repository.Storage, clk clock.Clock, reg prometheus.Registerer, unlockOpts unlockservice.Options) Services {
	m := metrics.New(reg)
	unlockOpts.Metrics = m

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL, clk)
	calc := streak.NewCalculator(cfg.StreakWindowDays, cfg.GoalDays)

	return Services{
		Auth:     authservice.NewAuthService(db, jwtMaker, clk),
		Progress: progressservice.NewProgressService(db, calc, m, logger),
		Unlock:   unlockservice.NewUnlockService(db, clk, logger, unlockOpts),
		Plans:    planservice.NewPlanService(db, logger),
		Health:   db,
		Metrics:  m,
		Limiter:  middlewarectx.NewRateLimiter(cfg.RPS, cfg.Burst),
		Clock:    clk,
	}
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
