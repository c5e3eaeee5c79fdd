// Package list реализует HTTP-обработчик выборки отметок за период.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fitprogress/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitprogress/internal/http/response"
	"github.com/magabrotheeeer/fitprogress/internal/lib/day"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// Service описывает выборку записей прогресса.
type Service interface {
	ListRecords(ctx context.Context, session models.Session, from, to *time.Time) ([]models.DailyProgress, error)
}

// Handler обрабатывает запросы на получение записей за период.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отметки за период
// @Description Возвращает записи пользователя от новых к старым. Границы from и to необязательны и включаются.
// @Tags Progress
// @Produce  json
// @Security BearerAuth
// @Param from query string false "Начало периода, YYYY-MM-DD"
// @Param to query string false "Конец периода, YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный период"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /progress [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.list"

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

	from, err := optionalDate(r.URL.Query().Get("from"))
	if err != nil {
		log.Error("invalid from", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("from must be in format YYYY-MM-DD"))
		return
	}
	to, err := optionalDate(r.URL.Query().Get("to"))
	if err != nil {
		log.Error("invalid to", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("to must be in format YYYY-MM-DD"))
		return
	}
	if from != nil && to != nil && from.After(*to) {
		log.Error("empty period", slog.String("from", day.Format(*from)), slog.String("to", day.Format(*to)))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("from must not be after to"))
		return
	}

	records, err := h.service.ListRecords(r.Context(), session, from, to)
	if err != nil {
		log.Error("failed to list progress", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list progress"))
		return
	}

	log.Debug("progress listed", slog.Int("count", len(records)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"records": records,
		"count":   len(records),
	}))
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := day.Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
