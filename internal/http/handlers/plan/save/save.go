// Package save реализует HTTP-обработчик сохранения плана питания или тренировок.
package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fitprogress/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitprogress/internal/http/response"
	"github.com/magabrotheeeer/fitprogress/internal/lib/sl"
	"github.com/magabrotheeeer/fitprogress/internal/models"
	services "github.com/magabrotheeeer/fitprogress/internal/services/plan"
)

// Service описывает сохранение плана.
type Service interface {
	Save(ctx context.Context, session models.Session, kind models.PlanKind, content string) (*models.Plan, error)
}

// Handler обрабатывает запросы на сохранение плана.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Сохранить план
// @Description Заменяет текст плана и возвращает его разбор по дням.
// @Tags Plans
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param kind path string true "diet или workout"
// @Param request body models.PlanRequest true "Текст плана"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /plans/{kind} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.save"

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

	var req models.PlanRequest
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

	res, err := h.service.Save(r.Context(), session, models.PlanKind(chi.URLParam(r, "kind")), req.Content)
	if err != nil {
		if errors.Is(err, services.ErrUnknownKind) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("kind must be diet or workout"))
			return
		}
		log.Error("failed to save plan", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save plan"))
		return
	}

	log.Info("plan saved", slog.String("kind", string(res.Kind)), slog.Int("days", len(res.Days)))
	render.JSON(w, r, response.StatusOKWithData(res))
}
