// Package toggle реализует HTTP-обработчик переключения отметки за день.
//
// Запрос инвертирует одну отметку (тренировка или питание). Если записи за день ещё нет,
// она создаётся с включённой отметкой. Ошибка хранилища отдаётся клиентом как 500,
// и UI должен откатить оптимистичное изменение.
package toggle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fitprogress/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitprogress/internal/http/response"
	"github.com/magabrotheeeer/fitprogress/internal/lib/day"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// Service описывает переключение отметки.
type Service interface {
	ToggleFlag(ctx context.Context, session models.Session, date time.Time, activity models.Activity) (*models.DailyProgress, error)
}

// Handler обрабатывает запросы на переключение отметки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Переключить отметку
// @Description Инвертирует отметку тренировки или питания за день и возвращает итоговую запись.
// @Tags Progress
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param date path string true "Дата в формате YYYY-MM-DD"
// @Param request body models.ToggleRequest true "Вид активности: workout или diet"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /progress/{date}/toggle [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.toggle"

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

	var req models.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	record, err := h.service.ToggleFlag(r.Context(), session, date, models.Activity(req.Activity))
	if err != nil {
		var pe *models.PersistenceError
		if errors.As(err, &pe) {
			log.Error("progress store failed", slog.String("store_op", pe.Op), sl.Err(err))
		} else {
			log.Error("failed to toggle", sl.Err(err))
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update progress"))
		return
	}

	log.Info("progress toggled",
		slog.String("date", day.Format(date)),
		slog.String("activity", req.Activity))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"date":          day.Format(record.Date),
		"workout_done":  record.WorkoutDone,
		"diet_followed": record.DietFollowed,
	}))
}
