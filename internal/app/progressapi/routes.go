// Package progressapi собирает HTTP API прогресса: маршруты, middleware и жизненный цикл сервера.
package progressapi

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/fitprogress/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/fitprogress/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/fitprogress/internal/http/handlers/evaluation/status"
	"github.com/magabrotheeeer/fitprogress/internal/http/handlers/health"
	planread "github.com/magabrotheeeer/fitprogress/internal/http/handlers/plan/read"
	plansave "github.com/magabrotheeeer/fitprogress/internal/http/handlers/plan/save"
	"github.com/magabrotheeeer/fitprogress/internal/http/handlers/progress/list"
	"github.com/magabrotheeeer/fitprogress/internal/http/handlers/progress/read"
	"github.com/magabrotheeeer/fitprogress/internal/http/handlers/progress/summary"
	"github.com/magabrotheeeer/fitprogress/internal/http/handlers/progress/toggle"
	"github.com/magabrotheeeer/fitprogress/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitprogress/internal/lib/clock"
	"github.com/magabrotheeeer/fitprogress/internal/metrics"
	authservice "github.com/magabrotheeeer/fitprogress/internal/services/auth"
	planservice "github.com/magabrotheeeer/fitprogress/internal/services/plan"
	progressservice "github.com/magabrotheeeer/fitprogress/internal/services/progress"
	unlockservice "github.com/magabrotheeeer/fitprogress/internal/services/unlock"
)

// Services зависимости обработчиков.
type Services struct {
	Auth     *authservice.AuthService
	Progress *progressservice.ProgressService
	Unlock   *unlockservice.UnlockService
	Plans    *planservice.PlanService
	Health   health.Checker
	Metrics  *metrics.Metrics
	Limiter  *middlewarectx.RateLimiter
	Clock    clock.Clock
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		s.Metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, s.Limiter))

			r.Get("/progress", list.New(logger, s.Progress).ServeHTTP)
			r.Get("/progress/summary", summary.New(logger, s.Progress, s.Clock).ServeHTTP)
			r.Get("/progress/{date}", read.New(logger, s.Progress).ServeHTTP)
			r.Post("/progress/{date}/toggle", toggle.New(logger, s.Progress).ServeHTTP)

			r.Get("/evaluation", status.New(logger, s.Unlock).ServeHTTP)

			r.Get("/plans/{kind}", planread.New(logger, s.Plans).ServeHTTP)
			r.Put("/plans/{kind}", plansave.New(logger, s.Plans).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
