// Package summary реализует HTTP-обработчик сводки прогресса: серии, процент выполнения
// программы и календарь последних дней.
package summary

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fitprogress/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitprogress/internal/http/response"
	"github.com/magabrotheeeer/fitprogress/internal/lib/clock"
	"github.com/magabrotheeeer/fitprogress/internal/lib/day"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// Service описывает расчёт сводки.
type Service interface {
	Summary(ctx context.Context, session models.Session, asOf time.Time) (*models.Summary, error)
}

// Handler обрабатывает запросы сводки.
type Handler struct {
	log     *slog.Logger
	service Service
	clock   clock.Clock
}

// New создает новый Handler. Без as_of сводка строится на сегодня по clk.
func New(log *slog.Logger, service Service, clk clock.Clock) *Handler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Handler{log: log, service: service, clock: clk}
}

// ServeHTTP godoc
// @Summary Сводка прогресса
// @Description Серии тренировок и питания на дату as_of, процент выполнения программы и календарь.
// @Tags Progress
// @Produce  json
// @Security BearerAuth
// @Param as_of query string false "Дата сводки, YYYY-MM-DD. По умолчанию сегодня"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректная дата"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /progress/summary [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.summary"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		log.Error("session missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	asOf := day.Truncate(h.clock.Now())
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := day.Parse(raw)
		if err != nil {
			log.Error("invalid as_of", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("as_of must be in format YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}

	summary, err := h.service.Summary(r.Context(), session, asOf)
	if err != nil {
		log.Error("failed to build summary", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build summary"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(summary))
}
