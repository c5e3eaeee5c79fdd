// Package read реализует HTTP-обработчик получения плана питания или тренировок.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fitprogress/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitprogress/internal/http/response"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/models"
	services "github.com/magabrotheeeer/fitprogress/internal/services/plan"
)

// Service описывает чтение плана.
type Service interface {
	Get(ctx context.Context, session models.Session, kind models.PlanKind) (*models.Plan, error)
}

// Handler обрабатывает запросы на чтение плана.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary План
// @Description Возвращает сохранённый план и его разбор по дням. Нераспознанный текст приходит в fallback.
// @Tags Plans
// @Produce  json
// @Security BearerAuth
// @Param kind path string true "diet или workout"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неизвестный вид плана"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /plans/{kind} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.read"

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

	res, err := h.service.Get(r.Context(), session, models.PlanKind(chi.URLParam(r, "kind")))
	if err != nil {
		if errors.Is(err, services.ErrUnknownKind) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("kind must be diet or workout"))
			return
		}
		log.Error("failed to read plan", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read plan"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
