// Package read реализует HTTP-обработчик получения отметок за один день.
//
// Отсутствие записи не считается ошибкой: клиент получает обе отметки false и exists=false.
package read

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fitprogress/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitprogress/internal/http/response"
	"github.com/magabrotheeeer/fitprogress/internal/lib/day"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// Service описывает чтение записи прогресса.
type Service interface {
	GetRecord(ctx context.Context, session models.Session, date time.Time) (*models.DailyProgress, error)
}

// Handler обрабатывает запросы на получение записи за день.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отметки за день
// @Description Возвращает отметки тренировки и питания за день. Если записи нет, обе отметки false.
// @Tags Progress
// @Produce  json
// @Security BearerAuth
// @Param date path string true "Дата в формате YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректная дата"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /progress/{date} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.read"

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

	date, err := day.Parse(chi.URLParam(r, "date"))
	if err != nil {
		log.Error("failed to parse date from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("date must be in format YYYY-MM-DD"))
		return
	}

	record, err := h.service.GetRecord(r.Context(), session, date)
	if err != nil {
		log.Error("failed to read progress", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read progress"))
		return
	}

	exists := record != nil
	if !exists {
		record = &models.DailyProgress{Date: date}
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"date":          day.Format(record.Date),
		"workout_done":  record.WorkoutDone,
		"diet_followed": record.DietFollowed,
		"exists":        exists,
	}))
}
